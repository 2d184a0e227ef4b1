package bytecode_test

import (
	"testing"

	"github.com/mna/esquick/lang/bytecode"
	"github.com/stretchr/testify/require"
)

func TestAssembleSimpleFunction(t *testing.T) {
	src := `
function: add 2 2
	locals:
		a
		b
	code:
		get_loc 0
		get_loc 1
		add
		return
`
	bc, err := bytecode.Assemble([]byte(src))
	require.NoError(t, err)
	require.Equal(t, "add", bc.Name)
	require.EqualValues(t, 2, bc.LocalCount)
	require.Equal(t, 2, bc.ParamCount)
	require.Equal(t, []string{"a", "b"}, bc.LocalVarNames)

	op, arg, next, err := bytecode.Decode(bc.Instructions, 0)
	require.NoError(t, err)
	require.Equal(t, bytecode.GET_LOC, op)
	require.EqualValues(t, 0, arg)

	op, arg, next, err = bytecode.Decode(bc.Instructions, next)
	require.NoError(t, err)
	require.Equal(t, bytecode.GET_LOC, op)
	require.EqualValues(t, 1, arg)

	op, _, next, err = bytecode.Decode(bc.Instructions, next)
	require.NoError(t, err)
	require.Equal(t, bytecode.ADD, op)

	op, _, _, err = bytecode.Decode(bc.Instructions, next)
	require.NoError(t, err)
	require.Equal(t, bytecode.RETURN, op)
}

func TestAssembleJumpTranslatesIndexToAddress(t *testing.T) {
	src := `
function: loop 1 0
	code:
		push_true
		if_false 4
		goto 0
		nop
		undefined
		return
`
	bc, err := bytecode.Assemble([]byte(src))
	require.NoError(t, err)

	op, arg, next, err := bytecode.Decode(bc.Instructions, 0)
	require.NoError(t, err)
	require.Equal(t, bytecode.PUSH_TRUE, op)

	op, arg, _, err = bytecode.Decode(bc.Instructions, next)
	require.NoError(t, err)
	require.Equal(t, bytecode.IF_FALSE, op)
	// index 4 (the `undefined` instruction) must translate to its byte address.
	require.EqualValues(t, bytecode.EncodedSize(bytecode.PUSH_TRUE)+bytecode.EncodedSize(bytecode.IF_FALSE)+bytecode.EncodedSize(bytecode.GOTO)+bytecode.EncodedSize(bytecode.NOP), arg)
}

func TestAssembleConstantsAndAtoms(t *testing.T) {
	src := `
function: f 0 0
	atoms:
		x
	constants:
		string "hello"
		int 42
		float 1.5
	code:
		push_const 0
		return
`
	bc, err := bytecode.Assemble([]byte(src))
	require.NoError(t, err)
	require.Equal(t, []string{"x"}, bc.AtomPool)
	require.Equal(t, []any{"hello", int64(42), 1.5}, bc.ConstantPool)
}

func TestAssembleRejectsUnknownOpcode(t *testing.T) {
	_, err := bytecode.Assemble([]byte("function: f 0 0\n\tcode:\n\t\tbogus_op\n"))
	require.Error(t, err)
}

func TestAssembleGeneratorAndAsyncFlags(t *testing.T) {
	bc, err := bytecode.Assemble([]byte("function: g 0 0 +generator\n\tcode:\n\t\tinitial_yield\n\t\tundefined\n\t\treturn\n"))
	require.NoError(t, err)
	require.True(t, bc.IsGenerator)
	require.False(t, bc.IsAsync)
}
