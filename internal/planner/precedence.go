package planner

import "time"

type ordinalKey struct {
	workID  string
	ordinal int
}

// Precedence 同一 Work 内工序的先后约束
//
// 索引指向本次运行持有的工序切片，运行中写入的分配对后续工序立即可见。
type Precedence struct {
	pause time.Duration
	ops   map[ordinalKey]*Operation
}

// NewPrecedence 为 ops 建立 (workID, ordinal) 索引
func NewPrecedence(ops []Operation, pause time.Duration) *Precedence {
	p := &Precedence{pause: pause, ops: make(map[ordinalKey]*Operation, len(ops))}
	for i := range ops {
		p.ops[ordinalKey{ops[i].WorkID, ops[i].Ordinal}] = &ops[i]
	}
	return p
}

// Earliest 返回前一道工序带来的最早开始时间；没有前序或前序未排时 ok=false
func (p *Precedence) Earliest(op *Operation) (time.Time, bool) {
	prev, ok := p.ops[ordinalKey{op.WorkID, op.Ordinal - 1}]
	if !ok || prev.Start == nil {
		return time.Time{}, false
	}
	return prev.End().Add(p.pause), true
}
