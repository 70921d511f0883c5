package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethpandaops/modelcfg/internal/testutil"
	"github.com/ethpandaops/modelcfg/pkg/index"
	"github.com/ethpandaops/modelcfg/pkg/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubWorkspace struct {
	root  string
	index *index.Index
}

func (s *stubWorkspace) ID() string                        { return "stub" }
func (s *stubWorkspace) Root() string                      { return s.root }
func (s *stubWorkspace) Index() index.Reader               { return s.index }
func (s *stubWorkspace) BaseModels() []workspace.BaseModel { return nil }
func (s *stubWorkspace) Reset(_ context.Context) error     { return nil }

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, (&Config{}).Validate())
	assert.NoError(t, (&Config{Enabled: true, Addr: ":0"}).Validate())
	assert.ErrorIs(t, (&Config{Enabled: true}).Validate(), ErrAPIAddrRequired)
	assert.ErrorIs(t, (&Config{Enabled: true, Addr: ":0", CORSOrigins: []string{""}}).Validate(), ErrEmptyOrigin)
	assert.NoError(t, (&Config{CORSOrigins: []string{""}}).Validate())
}

func TestDisabledServiceIsNoop(t *testing.T) {
	svc := NewService(&Config{}, &stubWorkspace{}, nil, testutil.NewLogger())

	require.NoError(t, svc.Start(context.Background()))
	require.NoError(t, svc.Stop())
}

func TestAppErrorHandler(t *testing.T) {
	ws := testutil.NewWorkspace(t)
	app := newApp(&Config{}, &stubWorkspace{root: ws.Root, index: index.New(nil)}, nil, testutil.NewLogger())

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantBody   string
	}{
		{name: "missing path", target: "/api/v1/configs/products", wantStatus: http.StatusBadRequest, wantBody: `"code":400`},
		{name: "unknown config", target: "/api/v1/configs?path=a.cfg", wantStatus: http.StatusNotFound, wantBody: "config not found"},
		{name: "unknown route", target: "/api/v1/nope", wantStatus: http.StatusNotFound, wantBody: `"code":404`},
		{name: "empty index", target: "/api/v1/index", wantStatus: http.StatusOK, wantBody: `"configs":0`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.target, http.NoBody))
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, "stub", resp.Header.Get(WorkspaceHeader))

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Contains(t, string(body), tt.wantBody)
		})
	}
}
