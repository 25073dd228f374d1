package questions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStrategy struct {
	name string
}

func (f *fakeStrategy) Name() string { return f.name }
func (f *fakeStrategy) Render(RenderContext) (PromptSpec, error) {
	return PromptSpec{Text: "prompt"}, nil
}
func (f *fakeStrategy) HandleAnswer(AnswerContext, AnswerInput) (AnswerResult, error) {
	return AnswerResult{Advance: true}, nil
}

func TestMustRegisterPanicsOnDuplicate(t *testing.T) {
	r := NewRegistry()
	r.MustRegister("dup", &fakeStrategy{name: "dup"})

	assert.Panics(t, func() { r.MustRegister("DUP ", &fakeStrategy{name: "dup"}) })
	assert.Panics(t, func() { r.MustRegister("nil", nil) })
}

func TestGetReturnsRegisteredStrategy(t *testing.T) {
	r := NewRegistry()
	r.MustRegister("awaiting_name", &fakeStrategy{name: "custom"})

	got := r.Get("awaiting_name")
	require.NotNil(t, got)
	assert.Equal(t, "custom", got.Name())
	assert.Nil(t, r.Get("missing"))
}

func TestRegistriesAreIndependent(t *testing.T) {
	a, b := NewRegistry(), NewRegistry()
	a.MustRegister("s", &fakeStrategy{name: "a"})
	assert.Nil(t, b.Get("s"))
	assert.NotPanics(t, func() { b.MustRegister("s", &fakeStrategy{name: "b"}) })
}
