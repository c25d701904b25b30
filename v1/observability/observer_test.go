package observability

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMultiSkipsNilAndFansOut(t *testing.T) {
	var got []string
	a := ObserverFunc(func(ctx OperationContext) { got = append(got, "a:"+ctx.Operation) })
	b := ObserverFunc(func(ctx OperationContext) { got = append(got, "b:"+ctx.Status()) })

	Multi(a, nil, b).ObserveOperation(OperationContext{Operation: "search", Error: errors.New("x")})

	assert.Equal(t, []string{"a:search", "b:error"}, got)
}
