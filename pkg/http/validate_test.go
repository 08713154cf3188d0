package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pageRequest struct {
	Name  string `json:"name" validate:"required,max=5"`
	Limit int    `query:"limit" default:"50" validate:"gte=1,lte=100"`
}

func bindRequest(t *testing.T, body string) interface{} {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())
	var r pageRequest
	return ReadAndValidateRequest(c, &r)
}

func TestReadAndValidateDefaults(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"abc"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())

	var r pageRequest
	require.Nil(t, ReadAndValidateRequest(c, &r))
	assert.Equal(t, 50, r.Limit)
}

func TestReadAndValidateErrors(t *testing.T) {
	verr := bindRequest(t, `{"name":"toolongname","limit":500}`)
	errs, ok := verr.([]ValidationError)
	require.True(t, ok)
	require.Len(t, errs, 2)
	assert.Equal(t, "ERR_MAX", errs[0].Code)
	assert.Equal(t, "name", errs[0].Field)
	assert.Equal(t, "name must have at most 5 characters", errs[0].Message)
	assert.Equal(t, "ERR_LTE", errs[1].Code)
	assert.Equal(t, "limit", errs[1].Field)
	assert.Equal(t, "limit must be at most 100", errs[1].Message)
	assert.Equal(t, "100", errs[1].Params["max"])
}

func TestReadAndValidateMalformed(t *testing.T) {
	verr := bindRequest(t, `{"name":`)
	errs, ok := verr.([]ValidationError)
	require.True(t, ok)
	assert.Equal(t, "ERR_BIND", errs[0].Code)
}

type symbolsRequest struct {
	Symbols []string `json:"symbols" validate:"required,min=1,max=2,dive,required,max=4"`
}

func TestReadAndValidateSliceMessages(t *testing.T) {
	e := echo.New()
	bind := func(body string) []ValidationError {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		var r symbolsRequest
		verr := ReadAndValidateRequest(e.NewContext(req, httptest.NewRecorder()), &r)
		if verr == nil {
			return nil
		}
		return verr.([]ValidationError)
	}

	assert.Nil(t, bind(`{"symbols":["AAPL"]}`))

	errs := bind(`{"symbols":["A","B","C"]}`)
	require.Len(t, errs, 1)
	assert.Equal(t, "symbols must have at most 2 items", errs[0].Message)

	errs = bind(`{"symbols":["TOOLONG"]}`)
	require.Len(t, errs, 1)
	assert.Equal(t, "symbols[0]", errs[0].Field)
	assert.Equal(t, "ERR_MAX", errs[0].Code)
}
