package service

import (
	"context"
	"sort"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/AlexSserb/dental-lab-backend/internal/model"
	"github.com/AlexSserb/dental-lab-backend/internal/repository"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User // key: user_id
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = "user-" + user.Email
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) ListByEmails(_ context.Context, emails []string) ([]model.User, error) {
	want := make(map[string]bool, len(emails))
	for _, e := range emails {
		want[e] = true
	}
	var result []model.User
	for _, u := range m.users {
		if want[u.Email] {
			result = append(result, *u)
		}
	}
	return result, nil
}

func (m *mockUserRepo) ListTechnicians(_ context.Context) ([]model.User, error) {
	var result []model.User
	for _, u := range m.users {
		if u.IsTech() && u.IsActive {
			result = append(result, *u)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Email < result[j].Email })
	return result, nil
}

// ── Mock OrderRepository ──

type mockOrderRepo struct {
	orders map[string]*model.Order
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{orders: make(map[string]*model.Order)}
}

func (m *mockOrderRepo) Create(_ context.Context, order *model.Order) error {
	m.orders[order.OrderID] = order
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id string) (*model.Order, error) {
	if o, ok := m.orders[id]; ok {
		return o, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock WorkRepository ──

type mockWorkRepo struct {
	works []*model.Work
	ops   *mockOperationRepo
}

func newMockWorkRepo(ops *mockOperationRepo) *mockWorkRepo {
	return &mockWorkRepo{ops: ops}
}

func (m *mockWorkRepo) Create(_ context.Context, work *model.Work) error {
	m.works = append(m.works, work)
	return nil
}

func (m *mockWorkRepo) GetByID(_ context.Context, id string) (*model.Work, error) {
	for _, w := range m.works {
		if w.WorkID == id {
			cp := *w
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// ListByOrder 与真实实现一致，每次返回按序号排列的最新工序
func (m *mockWorkRepo) ListByOrder(_ context.Context, orderID string) ([]model.Work, error) {
	var result []model.Work
	for _, w := range m.works {
		if w.OrderID != orderID {
			continue
		}
		cp := *w
		cp.Operations = nil
		for _, op := range m.ops.ordered() {
			if op.WorkID == w.WorkID {
				cp.Operations = append(cp.Operations, *op)
			}
		}
		sort.Slice(cp.Operations, func(i, j int) bool {
			return cp.Operations[i].OrdinalNumber < cp.Operations[j].OrdinalNumber
		})
		result = append(result, cp)
	}
	return result, nil
}

// ── Mock OperationStatusRepository ──

type mockOperationStatusRepo struct {
	statuses map[int]*model.OperationStatus
}

func newMockOperationStatusRepo() *mockOperationStatusRepo {
	m := &mockOperationStatusRepo{statuses: make(map[int]*model.OperationStatus)}
	for n, name := range map[int]string{1: "未开始", 2: "进行中", 3: "已完成"} {
		m.statuses[n] = &model.OperationStatus{OperationStatusID: statusID(n), Number: n, Name: name}
	}
	return m
}

func statusID(n int) string {
	return "status-" + strconv.Itoa(n)
}

func (m *mockOperationStatusRepo) GetByNumber(_ context.Context, number int) (*model.OperationStatus, error) {
	if s, ok := m.statuses[number]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock OperationRepository ──

type mockOperationRepo struct {
	ops   map[string]*model.Operation
	order []string
	seq   int

	bulkErr  error
	bulkCall int
	updates  int
}

func newMockOperationRepo() *mockOperationRepo {
	return &mockOperationRepo{ops: make(map[string]*model.Operation)}
}

func (m *mockOperationRepo) add(op *model.Operation) {
	if op.OperationID == "" {
		m.seq++
		op.OperationID = "op-gen-" + strconv.Itoa(m.seq)
	}
	if _, ok := m.ops[op.OperationID]; !ok {
		m.order = append(m.order, op.OperationID)
	}
	m.ops[op.OperationID] = op
}

func (m *mockOperationRepo) ordered() []*model.Operation {
	result := make([]*model.Operation, 0, len(m.order))
	for _, id := range m.order {
		result = append(result, m.ops[id])
	}
	return result
}

func (m *mockOperationRepo) CreateBatch(_ context.Context, ops []model.Operation) error {
	for i := range ops {
		op := ops[i]
		m.add(&op)
	}
	return nil
}

func (m *mockOperationRepo) GetByID(_ context.Context, id string) (*model.Operation, error) {
	if op, ok := m.ops[id]; ok {
		cp := *op
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockOperationRepo) GetByIDs(_ context.Context, ids []string) ([]model.Operation, error) {
	var result []model.Operation
	for _, id := range ids {
		if op, ok := m.ops[id]; ok {
			result = append(result, *op)
		}
	}
	return result, nil
}

func (m *mockOperationRepo) ListForPlanning(_ context.Context) ([]model.Operation, error) {
	var result []model.Operation
	for _, op := range m.ordered() {
		if statusNumber(op) != model.OperationStatusCompleted {
			result = append(result, *op)
		}
	}
	return result, nil
}

func (m *mockOperationRepo) ListByOrder(_ context.Context, orderID string) ([]model.Operation, error) {
	var result []model.Operation
	for _, op := range m.ordered() {
		if op.Work != nil && op.Work.OrderID == orderID {
			result = append(result, *op)
		}
	}
	return result, nil
}

// ListByWork 按状态编号、序号排列
func (m *mockOperationRepo) ListByWork(_ context.Context, workID string) ([]model.Operation, error) {
	var result []model.Operation
	for _, op := range m.ordered() {
		if op.WorkID == workID {
			result = append(result, *op)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		si, sj := statusNumber(&result[i]), statusNumber(&result[j])
		if si != sj {
			return si < sj
		}
		return result[i].OrdinalNumber < result[j].OrdinalNumber
	})
	return result, nil
}

func (m *mockOperationRepo) ListScheduledSince(_ context.Context, since time.Time, excludeOrderID string) ([]model.Operation, error) {
	var result []model.Operation
	for _, op := range m.ordered() {
		if op.TechID == nil || op.ExecStart == nil || op.ExecStart.Before(since) {
			continue
		}
		if op.Work != nil && op.Work.OrderID == excludeOrderID {
			continue
		}
		result = append(result, *op)
	}
	return result, nil
}

func (m *mockOperationRepo) ListScheduledInRange(_ context.Context, from, to time.Time, techID string) ([]model.Operation, error) {
	var result []model.Operation
	for _, op := range m.ordered() {
		if op.ExecStart == nil || op.ExecStart.Before(from) || !op.ExecStart.Before(to) {
			continue
		}
		if techID != "" && (op.TechID == nil || *op.TechID != techID) {
			continue
		}
		result = append(result, *op)
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].ExecStart.Before(*result[j].ExecStart) })
	return result, nil
}

func (m *mockOperationRepo) ListByTech(_ context.Context, techID string, offset, limit int) ([]model.Operation, int64, error) {
	var all []model.Operation
	for _, op := range m.ordered() {
		if op.TechID != nil && *op.TechID == techID {
			all = append(all, *op)
		}
	}
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

// BulkAssign 先校验全部存在再写入，模拟事务的全有或全无
func (m *mockOperationRepo) BulkAssign(_ context.Context, items []repository.OperationAssignment) error {
	m.bulkCall++
	if m.bulkErr != nil {
		return m.bulkErr
	}
	for _, it := range items {
		if _, ok := m.ops[it.OperationID]; !ok {
			return gorm.ErrRecordNotFound
		}
	}
	for _, it := range items {
		op := m.ops[it.OperationID]
		techID := it.TechID
		start := it.ExecStart
		op.TechID = &techID
		op.ExecStart = &start
	}
	return nil
}

func (m *mockOperationRepo) Update(_ context.Context, op *model.Operation) error {
	if _, ok := m.ops[op.OperationID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.updates++
	cp := *op
	m.ops[op.OperationID] = &cp
	return nil
}

// ── Mock OperationStatusEventRepository ──

type mockStatusEventRepo struct {
	events   []model.OperationStatusEvent
	statuses *mockOperationStatusRepo
	err      error
}

func (m *mockStatusEventRepo) CreateBatch(_ context.Context, events []model.OperationStatusEvent) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, events...)
	return nil
}

// ListByOperations 与真实实现一致，附带状态字典并按时间倒序
func (m *mockStatusEventRepo) ListByOperations(_ context.Context, ids []string) ([]model.OperationStatusEvent, error) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var result []model.OperationStatusEvent
	for _, ev := range m.events {
		if !want[ev.OperationID] {
			continue
		}
		for _, st := range m.statuses.statuses {
			if st.OperationStatusID == ev.OperationStatusID {
				ev.OperationStatus = st
			}
		}
		result = append(result, ev)
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

// ── 聚合 ──

type testRepos struct {
	user      *mockUserRepo
	order     *mockOrderRepo
	work      *mockWorkRepo
	operation *mockOperationRepo
	status    *mockOperationStatusRepo
	events    *mockStatusEventRepo
}

func newTestRepos() *testRepos {
	ops := newMockOperationRepo()
	statuses := newMockOperationStatusRepo()
	return &testRepos{
		user:      newMockUserRepo(),
		order:     newMockOrderRepo(),
		work:      newMockWorkRepo(ops),
		operation: ops,
		status:    statuses,
		events:    &mockStatusEventRepo{statuses: statuses},
	}
}

func (r *testRepos) toRepository() *repository.Repository {
	return &repository.Repository{
		User:            r.user,
		Order:           r.order,
		Work:            r.work,
		Operation:       r.operation,
		OperationStatus: r.status,
		StatusEvent:     r.events,
	}
}
