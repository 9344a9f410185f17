package handlers

import (
	"errors"
	"net/http"

	"github.com/vidtube/backend/internal/readmodel"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/response"
)

// SubscriptionHandler serves channel subscription endpoints.
type SubscriptionHandler struct {
	Subscriptions SubscriptionStore
	Reads         ReadModels
}

// Toggle handles POST /api/v1/subscriptions/c/{channelId}. It answers 201
// when a subscription was added and 200 when it was removed.
func (h SubscriptionHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	channelID, ok := pathID(w, r, "channelId", "channel")
	if !ok {
		return
	}
	ctx := r.Context()

	result, err := h.Subscriptions.Toggle(ctx, actor.UserID, channelID)
	if errors.Is(err, repositories.ErrConflict) {
		// A concurrent toggle of the same pair won the race.
		response.Error(ctx, w, http.StatusConflict, "subscription changed concurrently, retry")
		return
	}
	if err != nil {
		storeError(ctx, w, err, "channel")
		return
	}

	if result.Subscribed {
		response.JSON(ctx, w, http.StatusCreated, result, "subscribed successfully")
		return
	}
	response.JSON(ctx, w, http.StatusOK, result, "unsubscribed successfully")
}

// Subscribers handles GET /api/v1/subscriptions/c/{channelId}.
func (h SubscriptionHandler) Subscribers(w http.ResponseWriter, r *http.Request) {
	channelID, ok := pathID(w, r, "channelId", "channel")
	if !ok {
		return
	}
	h.list(w, r, func(page readmodel.Page) ([]readmodel.ChannelSummary, error) {
		return h.Reads.ChannelSubscribers(r.Context(), channelID, page)
	}, "no subscribers found", "subscribers fetched successfully")
}

// Subscribed handles GET /api/v1/subscriptions/u/{subscriberId}.
func (h SubscriptionHandler) Subscribed(w http.ResponseWriter, r *http.Request) {
	subscriberID, ok := pathID(w, r, "subscriberId", "subscriber")
	if !ok {
		return
	}
	h.list(w, r, func(page readmodel.Page) ([]readmodel.ChannelSummary, error) {
		return h.Reads.SubscribedChannels(r.Context(), subscriberID, page)
	}, "no subscribed channels found", "subscribed channels fetched successfully")
}

func (h SubscriptionHandler) list(w http.ResponseWriter, r *http.Request,
	fetch func(readmodel.Page) ([]readmodel.ChannelSummary, error), emptyMessage, message string) {
	page, ok := pageFrom(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	channels, err := fetch(page)
	if err != nil {
		storeError(ctx, w, err, "subscription")
		return
	}
	if len(channels) == 0 {
		response.Error(ctx, w, http.StatusNotFound, emptyMessage)
		return
	}
	response.JSON(ctx, w, http.StatusOK, channels, message)
}
