package conversation

import (
	"fmt"
	"strings"

	"github.com/spf13/afero"
)

// ContextPlaceholder marks where the input context line goes in a system prompt. Prompts
// without it get the context appended.
const ContextPlaceholder = "{{input_context}}"

const (
	textContext  = "O usuário enviou TEXTO. Interprete intenção real, dúvidas e nível de interesse."
	audioContext = "O usuário enviou um ÁUDIO. Interprete emoção, insegurança, interesse e tom de voz."
)

// DefaultSystemPrompt is used when no prompt file is configured.
const DefaultSystemPrompt = `Você é um consultor educacional sênior da Faculdade Marinho e conversa pelo WhatsApp
como uma pessoa real: tom leve, próximo e profissional, sem parecer robô nem vendedor.

Objetivo: entender o momento da pessoa, tirar inseguranças e conduzir com naturalidade até a matrícula.
Mostre valor antes do preço. Mensagens curtas. Cumprimente apenas se o usuário cumprimentar.
Se pedirem preço, informe o valor. Se houver interesse, convide com suavidade para a matrícula.
Se não souber algo, diga que vai consultar a coordenação e retorna em seguida.

Faculdade Marinho: nota máxima no MEC, laboratórios desde o primeiro período, ensino com foco no mercado.
- ADS: 2,5 anos, de R$ 600 por R$ 299/mês, sai com portfólio pronto.
- Direito: 5 anos, R$ 850/mês, núcleo de prática jurídica.
- Pedagogia: 4 anos, R$ 450/mês, estágio desde os primeiros períodos.

CONTEXTO:
` + ContextPlaceholder

// LoadSystemPrompt reads the prompt at path on fs. An empty path yields DefaultSystemPrompt.
func LoadSystemPrompt(fs afero.Fs, path string) (string, error) {
	if path == "" {
		return DefaultSystemPrompt, nil
	}
	b, err := afero.ReadFile(fs, path)
	if err != nil {
		return "", fmt.Errorf("read system prompt: %w", err)
	}
	p := strings.TrimSpace(string(b))
	if p == "" {
		return "", fmt.Errorf("system prompt %s is empty", path)
	}
	return p, nil
}

func renderPrompt(base string, audio bool) string {
	ctx := textContext
	if audio {
		ctx = audioContext
	}
	if strings.Contains(base, ContextPlaceholder) {
		return strings.ReplaceAll(base, ContextPlaceholder, ctx)
	}
	return base + "\n\nCONTEXTO:\n" + ctx
}
