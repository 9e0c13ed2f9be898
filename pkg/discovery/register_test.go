package discovery

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hashicorp/consul/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRegisterAndDeregister(t *testing.T) {
	var registered api.AgentServiceRegistration
	var deregistered string

	consul := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPut && r.URL.Path == "/v1/agent/service/register":
			body, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(body, &registered)
		case r.Method == http.MethodPut && len(r.URL.Path) > len("/v1/agent/service/deregister/"):
			deregistered = r.URL.Path[len("/v1/agent/service/deregister/"):]
		default:
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer consul.Close()

	reg, err := RegisterService("storefront", "10.0.0.5", 8080, consul.Listener.Addr().String(), zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, "storefront-10.0.0.5-8080", registered.ID)
	assert.Equal(t, "storefront", registered.Name)
	require.NotNil(t, registered.Check)
	assert.Equal(t, "http://10.0.0.5:8080/healthz", registered.Check.HTTP)

	require.NoError(t, reg.Deregister())
	assert.Equal(t, "storefront-10.0.0.5-8080", deregistered)
}
