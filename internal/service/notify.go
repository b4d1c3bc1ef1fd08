package service

import (
	"context"
	"encoding/json"
	"time"

	"CricPredict/internal/model"
	"CricPredict/internal/repository"

	"github.com/sirupsen/logrus"
)

// Notifier hands settlement events to the notification dispatcher.
// Fire-and-forget: implementations must never fail the caller.
type Notifier interface {
	PollSettled(ctx context.Context, poll *model.Poll, record *model.SettlementRecord, votes []*model.Vote)
}

// logNotifier persists one intent per affected user and "delivers" by
// logging. The real dispatcher sits behind the same table; anything that
// goes wrong here is logged and dropped, a missed notification must not
// roll back or poison a settlement.
type logNotifier struct {
	repo   repository.NotificationRepository
	logger *logrus.Logger
}

// NewLogNotifier creates the log-backed Notifier.
func NewLogNotifier(repo repository.NotificationRepository, logger *logrus.Logger) Notifier {
	return &logNotifier{repo: repo, logger: logger}
}

type settledPayload struct {
	PollUUID string `json:"poll_uuid"`
	Question string `json:"question"`
	PollType string `json:"poll_type"`
	Points   int    `json:"points"`
}

func (n *logNotifier) PollSettled(ctx context.Context, poll *model.Poll, record *model.SettlementRecord, votes []*model.Vote) {
	if len(votes) == 0 {
		return
	}
	now := time.Now()
	intents := make([]*model.NotificationIntent, 0, len(votes))
	for _, v := range votes {
		payload, err := json.Marshal(settledPayload{
			PollUUID: poll.PollUUID,
			Question: poll.Question,
			PollType: poll.Type,
			Points:   v.Points,
		})
		if err != nil {
			n.logger.WithError(err).WithField("user_id", v.UserID).Warn("marshal notification payload")
			continue
		}
		intents = append(intents, &model.NotificationIntent{
			UserID:    v.UserID,
			PollID:    poll.ID,
			Kind:      "POLL_SETTLED",
			Payload:   payload,
			CreatedAt: now,
		})
	}
	if err := n.repo.CreateIntents(ctx, intents); err != nil {
		n.logger.WithError(err).WithField("poll_uuid", poll.PollUUID).Warn("persist notification intents")
		return
	}

	ids := make([]uint64, 0, len(intents))
	for _, intent := range intents {
		n.logger.WithFields(logrus.Fields{
			"user_id":   intent.UserID,
			"poll_uuid": poll.PollUUID,
			"kind":      intent.Kind,
		}).Info("notification dispatched")
		ids = append(ids, intent.ID)
	}
	if err := n.repo.MarkDispatched(ctx, ids); err != nil {
		n.logger.WithError(err).WithField("poll_uuid", poll.PollUUID).Warn("mark notifications dispatched")
	}
}
