package solana

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ybbus/jsonrpc"
)

func TestParse(t *testing.T) {
	d := json.NewDecoder(bytes.NewBufferString(`{"InstructionError":[2,{"Custom":3}]}`))

	var raw interface{}
	assert.NoError(t, d.Decode(&raw))

	e, err := ParseTransactionError(raw)
	assert.NoError(t, err)

	assert.Equal(t, TransactionErrorInstructionError, e.ErrorKey())
	assert.NotNil(t, e.InstructionError())
	assert.Equal(t, 2, e.InstructionError().Index)
	assert.Equal(t, InstructionErrorCustom, e.InstructionError().ErrorKey())
	assert.NotNil(t, e.InstructionError().CustomError())
	assert.Equal(t, CustomError(3), *e.InstructionError().CustomError())

	d = json.NewDecoder(bytes.NewBufferString(`{"InstructionError":[0,"InvalidArgument"]}`))
	assert.NoError(t, d.Decode(&raw))

	e, err = ParseTransactionError(raw)
	assert.NoError(t, err)

	assert.Equal(t, TransactionErrorInstructionError, e.ErrorKey())
	assert.NotNil(t, e.InstructionError())
	assert.Equal(t, 0, e.InstructionError().Index)
	assert.Equal(t, InstructionErrorInvalidArgument, e.InstructionError().ErrorKey())

	d = json.NewDecoder(bytes.NewBufferString(`"DuplicateSignature"`))
	assert.NoError(t, d.Decode(&raw))

	e, err = ParseTransactionError(raw)
	assert.NoError(t, err)

	assert.Equal(t, TransactionErrorDuplicateSignature, e.ErrorKey())
	assert.Nil(t, e.InstructionError())
}

func TestParseRPCError(t *testing.T) {
	e, err := ParseRPCError(nil)
	assert.NoError(t, err)
	assert.Nil(t, e)

	// Simulation failures surface the transaction error under the "err" key
	// of the RPC error data.
	e, err = ParseRPCError(&jsonrpc.RPCError{
		Code:    -32002,
		Message: "Transaction simulation failed",
		Data: map[string]interface{}{
			"accounts": nil,
			"err": map[string]interface{}{
				"InstructionError": []interface{}{1.0, "InvalidAccountData"},
			},
			"logs": []interface{}{},
		},
	})
	assert.NoError(t, err)
	assert.Equal(t, TransactionErrorInstructionError, e.ErrorKey())
	assert.NotNil(t, e.InstructionError())
	assert.Equal(t, 1, e.InstructionError().Index)
	assert.Equal(t, InstructionErrorInvalidAccountData, e.InstructionError().ErrorKey())
	assert.Equal(t, "Error processing Instruction 1: InvalidAccountData", e.Error())

	e, err = ParseRPCError(&jsonrpc.RPCError{
		Code:    -32602,
		Message: "invalid params",
		Data:    map[string]interface{}{},
	})
	assert.NoError(t, err)
	assert.Nil(t, e)

	_, err = ParseRPCError(&jsonrpc.RPCError{
		Code:    -32602,
		Message: "invalid params",
		Data:    "not a map",
	})
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	e := NewTransactionError(TransactionErrorDuplicateSignature)
	assert.Equal(t, TransactionErrorDuplicateSignature, e.ErrorKey())
	assert.Equal(t, string(TransactionErrorDuplicateSignature), e.Error())
	assert.Nil(t, e.InstructionError())
}

func TestParseJSONNumber(t *testing.T) {
	tc := []interface{}{
		"1",
		1.0,
		json.Number("1"),
	}
	for i, c := range tc {
		v, err := parseJSONNumber(c)
		assert.NoError(t, err)
		assert.Equal(t, 1, v, i)
	}
}
