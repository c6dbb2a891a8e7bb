//go:build unit || !integration

package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCaseConversions(t *testing.T) {
	testCases := []struct {
		in, pascal, camel string
	}{
		{"get_message", "GetMessage", "getMessage"},
		{"my-canister", "MyCanister", "myCanister"},
		{"backend", "Backend", "backend"},
		{"icrc1_balance_of", "Icrc1BalanceOf", "icrc1BalanceOf"},
		{"getHTTPStatus", "GetHttpStatus", "getHttpStatus"},
		{"workflow engine", "WorkflowEngine", "workflowEngine"},
		{"", "", ""},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.pascal, ToPascalCase(tc.in))
			assert.Equal(t, tc.camel, ToCamelCase(tc.in))
		})
	}
}

func TestDomainNames(t *testing.T) {
	assert.Equal(t, "myCanisterReactor", ReactorName("my_canister"))
	assert.Equal(t, "MyCanisterService", ServiceTypeName("my_canister"))
	assert.Equal(t, "MyCanister", HookPrefix("my_canister"))
	assert.Equal(t, "getMessageQuery.ts", HookFileName("get_message", HookQuery))
	assert.Equal(t, "getMessageInfiniteQuery.ts", HookFileName("get_message", HookInfiniteQuery))
	assert.Equal(t, "setMessageMutation", HookExportName("set_message", HookMutation))
	assert.Equal(t, "useGetMessageQuery", ReactHookName("get_message", HookQuery))
}
