package domain_test

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/forge/internal/core/domain"
)

func members(statuses ...domain.BuildStatus) []domain.MemberStatus {
	out := make([]domain.MemberStatus, len(statuses))
	for i, s := range statuses {
		out[i] = domain.MemberStatus{ConfigurationID: domain.ConfigurationID(string(rune('a' + i))), Status: s}
	}
	return out
}

func TestAggregateStatus(t *testing.T) {
	const (
		ok      = domain.StatusSuccess
		failed  = domain.StatusFailed
		reused  = domain.StatusNoRebuildRequired
		cancel  = domain.StatusCancelled
		sysErr  = domain.StatusSystemError
		running = domain.StatusBuilding
	)

	tests := []struct {
		name     string
		members  []domain.MemberStatus
		expected domain.BuildStatus
	}{
		{"all success", members(ok, ok, ok, ok, ok), ok},
		{"one failed", members(ok, failed, ok, ok, ok), failed},
		{"all reused", members(reused, reused, reused, reused, reused), reused},
		{"cancelled dominates success", members(cancel, ok, ok, ok, ok), cancel},
		{"cancelled dominates failures", members(cancel, sysErr, ok, failed, failed), cancel},
		{"one building", members(running, ok, ok, ok, ok), running},
		{"building dominates failure", members(running, failed), running},
		{"waiting counts as outstanding", members(domain.StatusWaitingForDependencies, ok), running},
		{"enqueued counts as outstanding", members(domain.StatusEnqueued, reused), running},
		{"system error fails", members(sysErr, ok), failed},
		{"rejected dependencies fail", members(domain.StatusRejectedFailedDependencies, ok), failed},
		{"mix of success and reused", members(reused, ok, reused), ok},
		{"already built counts as reused", members(reused, domain.StatusRejectedAlreadyBuilt), reused},
		{"already built alone is reused", members(domain.StatusRejectedAlreadyBuilt), reused},
		{"already built with success", members(domain.StatusRejectedAlreadyBuilt, ok), ok},
		{"already built with system error fails", members(domain.StatusRejectedAlreadyBuilt, sysErr), failed},
		{"empty set is building", nil, running},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, domain.AggregateStatus(tt.members))
		})
	}
}

func TestAggregateStatus_OrderIndependent(t *testing.T) {
	set := members(
		domain.StatusSuccess,
		domain.StatusFailed,
		domain.StatusNoRebuildRequired,
		domain.StatusSystemError,
		domain.StatusSuccess,
	)
	want := domain.AggregateStatus(set)

	r := rand.New(rand.NewPCG(1, 2))
	for range 50 {
		r.Shuffle(len(set), func(i, j int) { set[i], set[j] = set[j], set[i] })
		assert.Equal(t, want, domain.AggregateStatus(set))
	}
}
