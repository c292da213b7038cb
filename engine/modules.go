package engine

import (
	"go.starlark.net/starlark"

	starlarkjson "go.starlark.net/lib/json"
	starlarkmath "go.starlark.net/lib/math"
	starlarktime "go.starlark.net/lib/time"
)

// The loadable utility modules scripts may legitimately need. Anything
// beyond these three is denied at validation time and again here.
var (
	starlarkJSON starlark.Value = starlarkjson.Module
	starlarkMath starlark.Value = starlarkmath.Module
	starlarkTime starlark.Value = starlarktime.Module
)
