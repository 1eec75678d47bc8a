package planner

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNoTechnician     = errors.New("没有可用的技师")
	ErrDeadlineViolated = errors.New("超出订单截止日期")
)

// ErrorKind 排产失败类型
type ErrorKind string

const (
	KindNoTechnician ErrorKind = "no_technician"
	KindDeadline     ErrorKind = "deadline_violated"
)

// PlanningError 排产失败，整批运行中止
// 携带出错工序的定位信息，Unwrap 返回对应的哨兵错误
type PlanningError struct {
	Kind        ErrorKind
	OperationID string
	WorkID      string
	Group       Group
	End         time.Time // 仅 KindDeadline
	Deadline    time.Time // 仅 KindDeadline
	Err         error
}

func (e *PlanningError) Error() string {
	switch e.Kind {
	case KindNoTechnician:
		return fmt.Sprintf("工序 %s（工作 %s）: 技能组 %s %v", e.OperationID, e.WorkID, e.Group, e.Err)
	case KindDeadline:
		return fmt.Sprintf("工序 %s（工作 %s）: 最早完成于 %s，%v %s",
			e.OperationID, e.WorkID, e.End.Format("2006-01-02 15:04"), e.Err, e.Deadline.Format("2006-01-02"))
	default:
		return fmt.Sprintf("工序 %s: %v", e.OperationID, e.Err)
	}
}

func (e *PlanningError) Unwrap() error {
	return e.Err
}
