package protocol

import (
	"fmt"
	"sort"
	"sync"
)

var (
	driversMu sync.RWMutex
	drivers   = make(map[string]Factory)
)

// Register makes a library binding available under name. It panics if name is empty, the
// factory is nil or name is already registered; bindings call it from init.
func Register(name string, f Factory) {
	driversMu.Lock()
	defer driversMu.Unlock()
	if name == "" || f == nil {
		panic("protocol: Register needs a name and a factory")
	}
	if _, dup := drivers[name]; dup {
		panic("protocol: Register called twice for driver " + name)
	}
	drivers[name] = f
}

// Lookup returns the factory registered under name.
func Lookup(name string) (Factory, error) {
	driversMu.RLock()
	defer driversMu.RUnlock()
	f, ok := drivers[name]
	if !ok {
		return nil, fmt.Errorf("protocol: unknown driver %q (registered: %v)", name, driverNames())
	}
	return f, nil
}

// Drivers returns the registered driver names, sorted.
func Drivers() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()
	return driverNames()
}

func driverNames() []string {
	out := make([]string, 0, len(drivers))
	for n := range drivers {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
