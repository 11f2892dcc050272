// Package api exposes the inbound HTTP surface of the SDK: the routes
// the simulate service calls back once a publish task or a binding
// attempt settles. Hosts mount the handler on an echo group and react
// to the parsed callbacks through the hook funcs.
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/getsocialkit/socialkit/logger"
	"github.com/getsocialkit/socialkit/persistence"
	"github.com/getsocialkit/socialkit/simulate"
)

// PostHook receives every settled publish task delivered by callback.
type PostHook func(c echo.Context, task *simulate.PostTask) error

// BindHook receives every settled binding attempt delivered by callback.
type BindHook func(c echo.Context, info *simulate.BindInfo) error

// Handler parses simulate callbacks, records them in the task store
// when one is attached and forwards them to the host hooks.
type Handler struct {
	client   *simulate.Client
	store    *persistence.Store
	log      logger.Logger
	postHook PostHook
	bindHook BindHook
}

func NewHandler(client *simulate.Client, log logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop{}
	}
	return &Handler{client: client, log: log}
}

// SetStore attaches a task store. Without one callbacks are still
// parsed and forwarded, just not persisted.
func (h *Handler) SetStore(store *persistence.Store) {
	h.store = store
}

func (h *Handler) SetPostHook(hook PostHook) { h.postHook = hook }

func (h *Handler) SetBindHook(hook BindHook) { h.bindHook = hook }

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/callback/post", h.HandlePostCallback)
	g.POST("/callback/bind", h.HandleBindCallback)
}

// HandlePostCallback answers the publish-task callback. The service
// retries on non-2xx answers, so persistence failures are reported
// while hook failures are the host's own error to map.
func (h *Handler) HandlePostCallback(c echo.Context) error {
	params, err := formParams(c)
	if err != nil {
		return h.Error(c, http.StatusBadRequest, "invalid callback body", err)
	}

	task := h.client.ParsePostCallback(params)
	if task.TaskID == "" {
		return h.Error(c, http.StatusBadRequest, "missing task_id", nil)
	}

	if h.store != nil {
		if err := h.store.UpdatePostTask(task); err != nil {
			h.log.WriteLog(logger.LevelError, "record post callback: "+err.Error(), "api/HandlePostCallback")
			return h.Error(c, http.StatusInternalServerError, "record callback failed", err)
		}
	}

	if h.postHook != nil {
		if err := h.postHook(c, task); err != nil {
			return err
		}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"task_id": task.TaskID,
	})
}

// HandleBindCallback answers the account-binding callback.
func (h *Handler) HandleBindCallback(c echo.Context) error {
	params, err := formParams(c)
	if err != nil {
		return h.Error(c, http.StatusBadRequest, "invalid callback body", err)
	}

	info := h.client.ParseBindCallback(params)
	if info.TaskID == "" {
		return h.Error(c, http.StatusBadRequest, "missing task_id", nil)
	}

	if h.store != nil {
		if err := h.store.SaveBindAttempt(info); err != nil {
			h.log.WriteLog(logger.LevelError, "record bind callback: "+err.Error(), "api/HandleBindCallback")
			return h.Error(c, http.StatusInternalServerError, "record callback failed", err)
		}
	}

	if h.bindHook != nil {
		if err := h.bindHook(c, info); err != nil {
			return err
		}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"task_id": info.TaskID,
	})
}

// formParams flattens the form body into the single-valued map the
// simulate parsers take.
func formParams(c echo.Context) (map[string]string, error) {
	values, err := c.FormParams()
	if err != nil {
		return nil, err
	}
	params := make(map[string]string, len(values))
	for key := range values {
		params[key] = values.Get(key)
	}
	return params, nil
}

func (h *Handler) Error(c echo.Context, code int, message string, err error) error {
	resp := map[string]interface{}{
		"status": message,
		"code":   code,
	}
	if err != nil {
		resp["error"] = err.Error()
	}
	return c.JSON(code, resp)
}
