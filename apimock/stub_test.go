package apimock

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_resolveTemplateValue(t *testing.T) {
	params := map[string]string{"index": "wazuh-alerts", "total": "3"}

	testCases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "no template", input: "api/v1/indexes", want: "api/v1/indexes"},
		{name: "single value", input: "api/v1/{{index}}/search", want: "api/v1/wazuh-alerts/search"},
		{name: "spaces inside braces", input: "api/v1/{{ index }}/search", want: "api/v1/wazuh-alerts/search"},
		{name: "several values", input: `{"index": "{{index}}", "num_hits": {{ total }}}`, want: `{"index": "wazuh-alerts", "num_hits": 3}`},
		{name: "unknown value", input: "{{ missing }}/search", want: "/search"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, resolveTemplateValue(tc.input, params))
		})
	}
}

func Test_joinPrefix(t *testing.T) {
	assert.Equal(t, "/TestSuite_Test_A/api/v1/indexes", joinPrefix("TestSuite_Test_A", "api/v1/indexes"))
	assert.Equal(t, "/TestSuite_Test_A", joinPrefix("/TestSuite_Test_A/", ""))
}

func Test_backendURL(t *testing.T) {
	got, err := backendURL("http://localhost:8181", "TestSuite_Test_A")

	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8181/TestSuite_Test_A", got)
}

func Test_ReadFixture(t *testing.T) {
	fixture, err := ReadFixture("testdata/wazuh-alerts.yaml")

	require.NoError(t, err)
	require.Len(t, fixture.Stubs, 6)

	health := fixture.Stubs[0]
	assert.Equal(t, "GET", health.Request.Method)
	assert.Equal(t, "health/readyz", health.Request.Path)
	assert.Equal(t, int64(200), health.Response.Status)
	assert.Equal(t, "true", health.Response.Body)

	count := fixture.Stubs[2]
	assert.Equal(t, int64(1), count.Priority)
	assert.Equal(t, []string{`"max_hits":0`}, count.Request.BodyContains)

	ingest := fixture.Stubs[4]
	assert.Equal(t, map[string]string{"commit": "force"}, ingest.Request.QueryParams)
	assert.Equal(t, time.Duration(0), ingest.Response.Delay)
}

func Test_ReadFixture_Errors(t *testing.T) {
	_, err := ReadFixture("testdata/missing.yaml")
	assert.Error(t, err)

	path := t.TempDir() + "/broken.yaml"
	require.NoError(t, os.WriteFile(path, []byte("stubs: ["), 0o644))
	_, err = ReadFixture(path)
	assert.ErrorContains(t, err, "failed to unmarshal api mock data")
}
