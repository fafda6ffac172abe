package script

import (
	"reflect"

	"textworld/internal/script/api"
)

// apiSymbols is the hand-written analogue of a `yaegi extract` symbol
// table (grounded on internal/autopoiesis/yaegi_executor.go's i.Use
// pattern): it's what lets an attached script `import
// "textworld/internal/script/api/api"` and declare a Handle function typed
// against Self/Event/World. As in yaegi's own tables, each key is the
// import path followed by the package name.
var apiSymbols = map[string]map[string]reflect.Value{
	"textworld/internal/script/api/api/api": {
		"Self":          reflect.ValueOf((*api.Self)(nil)),
		"World":         reflect.ValueOf((*api.World)(nil)),
		"Event":         reflect.ValueOf(api.Event{}),
		"Builder":       reflect.ValueOf(api.Builder{}),
		"NewBuilder":    reflect.ValueOf(api.NewBuilder),
		"StateHandlers": reflect.ValueOf(api.StateHandlers{}),
		"Def":           reflect.ValueOf(api.Def{}),
	},
}

// allowedImports is the script sandbox's stdlib whitelist. Anything not
// listed here (os, net, os/exec, syscall, unsafe, ...) cannot be imported
// by an attached script.
var allowedImports = map[string]bool{
	"strings":  true,
	"strconv":  true,
	"fmt":      true,
	"math":     true,
	"time":     true,
	"sort":     true,
	"errors":   true,
}
