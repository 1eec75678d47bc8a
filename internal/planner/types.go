package planner

import "time"

// Group 工序技能组
type Group string

const (
	GroupModels   Group = "MO" // 模型
	GroupCADCAM   Group = "CA" // CAD/CAM
	GroupCeramics Group = "CE" // 陶瓷
	GroupDentures Group = "DE" // 义齿
)

// Valid 是否为已知技能组
func (g Group) Valid() bool {
	switch g {
	case GroupModels, GroupCADCAM, GroupCeramics, GroupDentures:
		return true
	}
	return false
}

// Technician 技师（只属于一个技能组）
type Technician struct {
	ID    string
	Email string
	Name  string
	Group Group
}

// Operation 参与排产的一道工序快照
type Operation struct {
	ID       string
	WorkID   string
	OrderID  string
	Ordinal  int // 在所属 Work 内从 1 开始的执行顺序
	Group    Group
	Duration time.Duration
	Deadline time.Time // 订单截止日期，只比较日期部分
	TechID   string    // 空串表示未分配
	Start    *time.Time
	Editable bool // false 表示已锁定，只作为障碍读取
}

// Scheduled 是否已有技师与开始时间
func (o *Operation) Scheduled() bool {
	return o.TechID != "" && o.Start != nil
}

// End 计划结束时间，未排时返回零值
func (o *Operation) End() time.Time {
	if o.Start == nil {
		return time.Time{}
	}
	return o.Start.Add(o.Duration)
}

func (o Operation) clone() Operation {
	if o.Start != nil {
		s := *o.Start
		o.Start = &s
	}
	return o
}

// Input 一次排产运行的输入快照
type Input struct {
	// 候选工序：可编辑的会被重新分配，不可编辑的只读
	Operations []Operation
	// 额外障碍：无论 Editable 取值都视为锁定，只用于初始化技师空闲时间
	Obstacles   []Operation
	Technicians []Technician
	// 排产基准时间，零值时取 time.Now()
	Now time.Time
}

// Assignment 一条新产生的分配结果
type Assignment struct {
	OperationID string
	TechID      string
	Start       time.Time
	End         time.Time
}

// Plan 排产结果
type Plan struct {
	// 全部候选工序：可编辑的已写入新分配，不可编辑的原样保留
	Operations []Operation
	// 本次运行新产生的分配，按处理顺序
	Assignments []Assignment
}
