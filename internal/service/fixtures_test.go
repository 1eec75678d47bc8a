package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/AlexSserb/dental-lab-backend/config"
	"github.com/AlexSserb/dental-lab-backend/internal/model"
	pkgerrors "github.com/AlexSserb/dental-lab-backend/pkg/errors"
)

// ── 测试辅助 ──

// 2026-10-19 为周一
var testNow = time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)

func at(day, hour, min int) time.Time {
	return time.Date(2026, 10, day, hour, min, 0, 0, time.UTC)
}

func strPtr(s string) *string { return &s }

func testEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := NewEngine(&config.PlannerConfig{
		Timezone:      "UTC",
		WorkdayStart:  "04:00",
		WorkdayEnd:    "15:00",
		Pause:         5 * time.Minute,
		NextDayBuffer: 10 * time.Minute,
		SkipWeekday:   "Saturday",
		LockTTL:       time.Minute,
	})
	if err != nil {
		t.Fatalf("NewEngine 失败: %v", err)
	}
	return engine
}

var (
	opTypeCA = &model.OperationType{OperationTypeID: "type-ca", Name: "铣削", ExecMinutes: 50, Group: "CA"}
	opTypeCE = &model.OperationType{OperationTypeID: "type-ce", Name: "上瓷", ExecMinutes: 40, Group: "CE"}
)

// seedBasicData 种子数据：2 名技师（CA / CE）+ 订单 o1（截止 10-24）+ 产品 w1（两道工序）
func seedBasicData(repos *testRepos) {
	repos.user.users["u-ca"] = &model.User{UserID: "u-ca", Name: "技师甲", Email: "ca@lab.ru", Role: model.RoleTech, TechGroup: strPtr("CA"), IsActive: true}
	repos.user.users["u-ce"] = &model.User{UserID: "u-ce", Name: "技师乙", Email: "ce@lab.ru", Role: model.RoleTech, TechGroup: strPtr("CE"), IsActive: true}
	repos.user.users["u-admin"] = &model.User{UserID: "u-admin", Name: "管理员", Email: "admin@lab.ru", Role: model.RoleAdmin, IsActive: true}

	order := &model.Order{OrderID: "o1", Deadline: time.Date(2026, 10, 24, 0, 0, 0, 0, time.UTC)}
	repos.order.orders[order.OrderID] = order

	work := &model.Work{WorkID: "w1", OrderID: "o1", WorkTypeID: "wt-crown", Order: order}
	notStarted := repos.status.statuses[model.OperationStatusNotStarted]

	repos.operation.add(&model.Operation{
		OperationID: "op-1", WorkID: "w1", OperationTypeID: opTypeCA.OperationTypeID, OrdinalNumber: 1,
		IsExecStartEditable: true, Work: work, OperationType: opTypeCA,
		OperationStatusID: &notStarted.OperationStatusID, OperationStatus: notStarted,
	})
	repos.operation.add(&model.Operation{
		OperationID: "op-2", WorkID: "w1", OperationTypeID: opTypeCE.OperationTypeID, OrdinalNumber: 2,
		IsExecStartEditable: true, Work: work, OperationType: opTypeCE,
		OperationStatusID: &notStarted.OperationStatusID, OperationStatus: notStarted,
	})
}

// seedOtherOrder 另一个订单 o2 的工序，已排给 CA 技师
func seedOtherOrder(repos *testRepos, start time.Time) {
	order := &model.Order{OrderID: "o2", Deadline: time.Date(2026, 10, 30, 0, 0, 0, 0, time.UTC)}
	repos.order.orders[order.OrderID] = order
	work := &model.Work{WorkID: "w2", OrderID: "o2", Order: order}
	repos.operation.add(&model.Operation{
		OperationID: "op-x", WorkID: "w2", OperationTypeID: opTypeCA.OperationTypeID, OrdinalNumber: 1,
		IsExecStartEditable: true, Work: work, OperationType: opTypeCA,
		TechID: strPtr("u-ca"), ExecStart: &start, Tech: repos.user.users["u-ca"],
	})
}

// busyLocker 锁永远被占用
type busyLocker struct{}

func (busyLocker) Lock(_ context.Context, _ string, _ time.Duration) (func(), error) {
	return nil, pkgerrors.ErrLockNotAcquired
}

func newNopLogger() *zap.Logger { return zap.NewNop() }
