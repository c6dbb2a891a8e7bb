//go:build unit || !integration

package codegen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/B3Pay/ic-reactor-sub004/pkg/idl"
)

const treeDid = `
type Account = record { owner : principal; subaccount : opt blob };
type Node = record { value : int64; children : vec Node };
type Result = variant { Ok : nat; Err : text };
service : (Account) -> {
  balance : (Account) -> (nat) query;
  tree : () -> (Node) query;
  transfer : (Account, nat64) -> (Result);
  pair : () -> (text, nat32) composite_query;
}
`

func parse(t *testing.T, src string) *idl.Program {
	prog, err := idl.Parse(src)
	require.NoError(t, err)
	return prog
}

func TestGenerateJS(t *testing.T) {
	js := GenerateJS(parse(t, treeDid))

	assert.Contains(t, js, "export const idlFactory = ({ IDL }) => {")
	assert.Contains(t, js, "const Node = IDL.Rec();")
	assert.Contains(t, js, "Node.fill(IDL.Record({ 'value' : IDL.Int64, 'children' : IDL.Vec(Node) }));")
	assert.Contains(t, js, "const Account = IDL.Record({ 'owner' : IDL.Principal, 'subaccount' : IDL.Opt(IDL.Vec(IDL.Nat8)) });")
	assert.Contains(t, js, "'balance' : IDL.Func([Account], [IDL.Nat], ['query']),")
	assert.Contains(t, js, "'pair' : IDL.Func([], [IDL.Text, IDL.Nat32], ['composite_query']),")
	assert.Contains(t, js, "'transfer' : IDL.Func([Account, IDL.Nat64], [Result], []),")
	assert.Contains(t, js, "export const init = ({ IDL }) => {")
	assert.Contains(t, js, "return [Account];")
	assert.NotContains(t, js, "const Account = IDL.Rec()")
}

func TestGenerateJSOrdersDependencies(t *testing.T) {
	js := GenerateJS(parse(t, `
type Outer = record { inner : Inner };
type Inner = record { n : nat };
service : { get : () -> (Outer) query }
`))
	inner := strings.Index(js, "const Inner =")
	outer := strings.Index(js, "const Outer =")
	require.NotEqual(t, -1, inner)
	require.NotEqual(t, -1, outer)
	assert.Less(t, inner, outer)
}

func TestGenerateTS(t *testing.T) {
	ts := GenerateTS(parse(t, treeDid))

	assert.Contains(t, ts, "import type { Principal } from '@dfinity/principal';")
	assert.Contains(t, ts, "export interface Account {\n  'owner' : Principal,\n  'subaccount' : [] | [Uint8Array | number[]],\n}")
	assert.Contains(t, ts, "export type Result = { 'Ok' : bigint } |\n  { 'Err' : string };")
	assert.Contains(t, ts, "export interface _SERVICE {")
	assert.Contains(t, ts, "'balance' : ActorMethod<[Account], bigint>,")
	assert.Contains(t, ts, "'pair' : ActorMethod<[], [string, number]>,")
	assert.Contains(t, ts, "'tree' : ActorMethod<[], Node>,")
	assert.Contains(t, ts, "export declare const idlFactory: IDL.InterfaceFactory;")
}
