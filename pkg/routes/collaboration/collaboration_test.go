package collaboration

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Update must refuse any payload that tries to set stage directly; the check
// runs before the engine is ever consulted.
func TestUpdate_RejectsStageInPayload(t *testing.T) {
	e := echo.New()
	h := NewHandler(nil, nil, nil, nil)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/collaborations/abc", strings.NewReader(`{"stage":"QUOTED"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("abc")

	err := h.Update(c)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
	assert.Contains(t, err.Error(), "transition")
}

func TestUpdate_RejectsInvalidJSON(t *testing.T) {
	e := echo.New()
	h := NewHandler(nil, nil, nil, nil)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/collaborations/abc", strings.NewReader(`{`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("abc")

	err := h.Update(c)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
}
