package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bwerff/ExcelAiRate-sub000/internal/engine"
	"github.com/bwerff/ExcelAiRate-sub000/pkg/api"
)

func TestContextOverridesWin(t *testing.T) {
	ec := engine.NewContext(
		api.Args{"region": "us", "tier": "basic"},
		api.Args{"tier": "pro"},
	)

	tier, ok := ec.Get("tier")
	assert.True(t, ok)
	assert.Equal(t, "pro", tier)

	region, ok := ec.Get("region")
	assert.True(t, ok)
	assert.Equal(t, "us", region)
}

func TestContextOutputKeying(t *testing.T) {
	ec := engine.NewContext(nil, nil)
	ec.SetOutput("step-a", "total", 42)

	val, ok := ec.GetOutput("step-a", "total")
	assert.True(t, ok)
	assert.Equal(t, 42, val)

	outputs := ec.Outputs()
	assert.Equal(t, 42, outputs["step-a.total"])
}

func TestContextLookupServesExpressions(t *testing.T) {
	ec := engine.NewContext(api.Args{"score": 80}, nil)

	val, ok := ec.Lookup("score")
	assert.True(t, ok)
	assert.Equal(t, 80, val)

	_, ok = ec.Lookup("missing")
	assert.False(t, ok)
}

func TestContextVariablesSnapshot(t *testing.T) {
	ec := engine.NewContext(api.Args{"a": 1}, nil)
	snap := ec.Variables()
	ec.Set("a", 2)
	assert.Equal(t, 1, snap["a"])
}
