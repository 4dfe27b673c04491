package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"loancrm/internal/adapter/realtime"
	"loancrm/internal/domain/notification"
	notifyuc "loancrm/internal/usecase/notification"
	prefuc "loancrm/internal/usecase/preference"
)

const defaultHeartbeat = 25 * time.Second

// Subscriber opens a user's live push channel.
type Subscriber interface {
	Subscribe(ctx context.Context, userID uint64) (*realtime.Subscription, error)
}

type NotificationHandler struct {
	inbox     *notifyuc.Inbox
	prefs     *prefuc.Store
	sub       Subscriber
	heartbeat time.Duration
}

func NewNotificationHandler(inbox *notifyuc.Inbox, prefs *prefuc.Store, sub Subscriber) *NotificationHandler {
	return &NotificationHandler{inbox: inbox, prefs: prefs, sub: sub, heartbeat: defaultHeartbeat}
}

func (h *NotificationHandler) List(c echo.Context) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	unread := c.QueryParam("unread") == "true"
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil {
			return badQuery("limit")
		}
	}
	out, err := h.inbox.List(c.Request().Context(), uid, unread, limit)
	if err != nil {
		return respondError(c, err)
	}
	if out == nil {
		out = []notification.Notification{}
	}
	return c.JSON(http.StatusOK, out)
}

// UnreadCount is what a reconnecting client asks first.
func (h *NotificationHandler) UnreadCount(c echo.Context) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	n, err := h.inbox.UnreadCount(c.Request().Context(), uid)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]int64{"count": n})
}

func (h *NotificationHandler) MarkRead(c echo.Context) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.inbox.MarkRead(c.Request().Context(), uid, id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	n, err := h.inbox.MarkAllRead(c.Request().Context(), uid)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]int64{"updated": n})
}

func (h *NotificationHandler) GetPreferences(c echo.Context) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	p, err := h.prefs.GetOrCreate(c.Request().Context(), uid)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *NotificationHandler) UpdatePreferences(c echo.Context) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	var patch prefuc.Patch
	if err := c.Bind(&patch); err != nil {
		return badBody(c)
	}
	p, err := h.prefs.Update(c.Request().Context(), uid, patch)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// Stream is a server-sent event feed of the user's pushes. It opens with the
// current unread count so a reconnecting client recovers whatever it missed.
func (h *NotificationHandler) Stream(c echo.Context) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	// subscribe before counting so nothing published in between is lost
	sub, err := h.sub.Subscribe(ctx, uid)
	if err != nil {
		return respondError(c, err)
	}
	defer sub.Close()

	count, err := h.inbox.UnreadCount(ctx, uid)
	if err != nil {
		return respondError(c, err)
	}
	first, err := json.Marshal(notification.NewUnreadCountPush(count))
	if err != nil {
		return respondError(c, err)
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.WriteHeader(http.StatusOK)
	if err := writeEvent(res, string(first)); err != nil {
		return nil
	}

	beat := time.NewTicker(h.heartbeat)
	defer beat.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-sub.Messages():
			if !ok {
				return nil
			}
			if err := writeEvent(res, msg.Payload); err != nil {
				return nil
			}
		case <-beat.C:
			if _, err := fmt.Fprint(res, ": ping\n\n"); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}

func writeEvent(res *echo.Response, data string) error {
	if _, err := fmt.Fprintf(res, "data: %s\n\n", data); err != nil {
		return err
	}
	res.Flush()
	return nil
}
