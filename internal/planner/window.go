package planner

import (
	"fmt"
	"time"
)

// Window 每日工作时间窗
//
// 时间点以当天零点起的偏移表示，按 Location 所在时区计算日期。
type Window struct {
	Open     time.Duration
	Close    time.Duration
	Buffer   time.Duration // 顺延到下一工作日时在开门时间上追加的缓冲
	SkipDay  time.Weekday  // 顺延时若次日为该日，则直接跳三天
	Location *time.Location
}

// NewWindow 由 HH:MM 字符串构造时间窗
func NewWindow(open, close string, buffer time.Duration, skip time.Weekday, loc *time.Location) (Window, error) {
	o, err := parseClock(open)
	if err != nil {
		return Window{}, err
	}
	c, err := parseClock(close)
	if err != nil {
		return Window{}, err
	}
	if o >= c {
		return Window{}, fmt.Errorf("时间窗开始 %s 必须早于结束 %s", open, close)
	}
	if loc == nil {
		loc = time.UTC
	}
	return Window{Open: o, Close: c, Buffer: buffer, SkipDay: skip, Location: loc}, nil
}

func parseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("无效的时间 %q，格式应为 HH:MM", s)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

func (w Window) loc() *time.Location {
	if w.Location == nil {
		return time.UTC
	}
	return w.Location
}

// dayAt 返回 t 所在日期零点加 offset 的时刻
func (w Window) dayAt(t time.Time, offset time.Duration) time.Time {
	y, m, d := t.In(w.loc()).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, w.loc()).Add(offset)
}

// Fit 将候选 (start, d) 调整为完全落在某一天工作时间窗内的 (start, end)
//
// 早于开门则推到开门；结束晚于关门则整体顺延到下一天（次日为 SkipDay 时顺延三天），
// 从开门时间加 Buffer 重新开始。只顺延一次，d 超过时间窗长度时结果仍会越过关门时间。
func (w Window) Fit(start time.Time, d time.Duration) (time.Time, time.Time) {
	s := start.In(w.loc())
	if open := w.dayAt(s, w.Open); s.Before(open) {
		s = open
	}

	end := s.Add(d)
	if end.After(w.dayAt(s, w.Close)) {
		next := s.AddDate(0, 0, 1)
		if next.Weekday() == w.SkipDay {
			next = s.AddDate(0, 0, 3)
		}
		s = w.dayAt(next, w.Open).Add(w.Buffer)
		end = s.Add(d)
	}
	return s, end
}

// AfterDate end 所在日期（按时间窗时区）是否晚于 deadline 的日期
// deadline 为零值时视为无截止日期
func (w Window) AfterDate(end, deadline time.Time) bool {
	if deadline.IsZero() {
		return false
	}
	ey, em, ed := end.In(w.loc()).Date()
	dy, dm, dd := deadline.Date()
	endDay := time.Date(ey, em, ed, 0, 0, 0, 0, time.UTC)
	deadlineDay := time.Date(dy, dm, dd, 0, 0, 0, 0, time.UTC)
	return endDay.After(deadlineDay)
}
