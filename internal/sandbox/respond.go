package sandbox

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/gogo/sdapi/domain"
	"github.com/xiaot623/gogo/sdapi/fault"
)

// typeInternalError is the fault type of unexpected sandbox failures.
const typeInternalError = "InternalServerErrorException"

var faultStatus = map[fault.Kind]int{
	fault.KindNotAuthorized:        http.StatusUnauthorized,
	fault.KindClientIDRequired:     http.StatusBadRequest,
	fault.KindDebuggerDisabled:     http.StatusPreconditionFailed,
	fault.KindInvalidScriptPath:    http.StatusBadRequest,
	fault.KindInvalidScriptFile:    http.StatusBadRequest,
	fault.KindBreakpointNotFound:   http.StatusNotFound,
	fault.KindScriptThreadNotFound: http.StatusNotFound,
	fault.KindInvalidFrameIndex:    http.StatusNotFound,
}

func respondFault(c echo.Context, err *fault.Error) error {
	status, ok := faultStatus[err.Kind]
	if !ok {
		status = http.StatusBadRequest
	}
	return c.JSON(status, domain.FaultResponse{
		Version: domain.APIVersion,
		Fault:   &domain.Fault{Type: err.Kind.Type(), Message: err.Message},
	})
}

func respondError(c echo.Context, err error) error {
	c.Logger().Errorf("sandbox: %v", err)
	return c.JSON(http.StatusInternalServerError, domain.FaultResponse{
		Version: domain.APIVersion,
		Fault:   &domain.Fault{Type: typeInternalError, Message: err.Error()},
	})
}

func errNotAuthorized() *fault.Error {
	return fault.NewNotAuthorized("You are not authorized to use the Script Debugger.")
}

func errClientIDRequired() *fault.Error {
	return fault.NewClientIDRequired("The client id header 'x-dw-client-id' is required.")
}

func errDebuggerDisabled() *fault.Error {
	return fault.NewDebuggerDisabled("The Script Debugger is not enabled for this client.")
}

func errInvalidScriptPath(path string) *fault.Error {
	return fault.NewInvalidScriptPath(fmt.Sprintf("The script path '%s' is invalid.", path))
}

func errInvalidScriptFile(path string) *fault.Error {
	return fault.NewInvalidScriptFile(fmt.Sprintf("The script file '%s' is not a script file.", path))
}

func errBreakpointNotFound(id string) *fault.Error {
	return fault.NewBreakpointNotFound(fmt.Sprintf("No breakpoint with id '%s' found.", id))
}

func errScriptThreadNotFound(id string) *fault.Error {
	return fault.NewScriptThreadNotFound(fmt.Sprintf("No halted script thread with id '%s' found.", id))
}

func errInvalidFrameIndex(threadID int, frame string) *fault.Error {
	return fault.NewInvalidFrameIndex(fmt.Sprintf("No frame with index '%s' found in script thread '%d'.", frame, threadID))
}
