// SPDX-License-Identifier: MIT

package health

import (
	"context"
	"fmt"
	"time"

	"github.com/ManuGH/appsettings/internal/store"
)

// PingChecker reports a component reachable through a ping function.
type PingChecker struct {
	name    string
	ping    func(ctx context.Context) error
	timeout time.Duration
}

// NewStoreChecker checks that the persistence backend answers.
func NewStoreChecker(st store.Store) *PingChecker {
	return &PingChecker{name: "store", ping: st.Ping, timeout: 2 * time.Second}
}

func (c *PingChecker) Name() string { return c.name }

func (c *PingChecker) Check(ctx context.Context) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := c.ping(ctx); err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
	}
	return CheckResult{Status: StatusHealthy, Message: "reachable"}
}

// PersistChecker reports the autosave worker. A failing save degrades the
// daemon: values are still served, they are just not durable yet.
type PersistChecker struct {
	status func() store.PersistStatus
}

func NewPersistChecker(status func() store.PersistStatus) *PersistChecker {
	return &PersistChecker{status: status}
}

func (c *PersistChecker) Name() string { return "autosave" }

func (c *PersistChecker) Check(context.Context) CheckResult {
	s := c.status()
	if s.LastError != nil {
		return CheckResult{
			Status:  StatusDegraded,
			Error:   s.LastError.Error(),
			Message: fmt.Sprintf("unsaved changes since revision %d", s.SavedRevision),
		}
	}
	if s.Dirty() {
		return CheckResult{Status: StatusHealthy, Message: "save pending"}
	}
	return CheckResult{Status: StatusHealthy, Message: fmt.Sprintf("saved revision %d", s.SavedRevision)}
}
