package model

import "time"

// OperationType 工序类型表，对应 operation_types
type OperationType struct {
	OperationTypeID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"operation_type_id"`
	Name            string `gorm:"type:varchar(128);not null"                     json:"name"`
	ExecMinutes     int    `gorm:"not null"                                       json:"exec_minutes"`
	Group           string `gorm:"column:op_group;type:varchar(2);not null"       json:"group"` // MO | CA | CE | DE
	BaseModel
}

func (OperationType) TableName() string { return "operation_types" }

// ExecDuration 工序时长
func (t *OperationType) ExecDuration() time.Duration {
	return time.Duration(t.ExecMinutes) * time.Minute
}

// 工序状态编号
const (
	OperationStatusNotStarted = 1
	OperationStatusInProgress = 2
	OperationStatusCompleted  = 3
)

// OperationStatus 工序状态字典，对应 operation_statuses
type OperationStatus struct {
	OperationStatusID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"operation_status_id"`
	Number            int    `gorm:"not null;uniqueIndex"                           json:"number"`
	Name              string `gorm:"type:varchar(128);not null"                     json:"name"`
}

func (OperationStatus) TableName() string { return "operation_statuses" }

// Operation 工序表，对应 operations
type Operation struct {
	OperationID         string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"operation_id"`
	WorkID              string     `gorm:"type:uuid;not null"                             json:"work_id"`
	OperationTypeID     string     `gorm:"type:uuid;not null"                             json:"operation_type_id"`
	OperationStatusID   *string    `gorm:"type:uuid"                                      json:"operation_status_id,omitempty"`
	TechID              *string    `gorm:"type:uuid"                                      json:"tech_id,omitempty"`
	OrdinalNumber       int        `gorm:"not null"                                       json:"ordinal_number"`
	ExecStart           *time.Time `json:"exec_start,omitempty"`
	IsExecStartEditable bool       `gorm:"not null;default:true"                          json:"is_exec_start_editable"`
	BaseModel

	// 关联
	Work            *Work            `gorm:"foreignKey:WorkID;references:WorkID"                       json:"work,omitempty"`
	OperationType   *OperationType   `gorm:"foreignKey:OperationTypeID;references:OperationTypeID"     json:"operation_type,omitempty"`
	OperationStatus *OperationStatus `gorm:"foreignKey:OperationStatusID;references:OperationStatusID" json:"operation_status,omitempty"`
	Tech            *User            `gorm:"foreignKey:TechID;references:UserID"                       json:"tech,omitempty"`
}

func (Operation) TableName() string { return "operations" }

// OperationStatusEvent 工序状态变更记录，对应 operation_status_events
// 工序创建时记录初始状态，此后每次状态变化追加一条
type OperationStatusEvent struct {
	EventID           string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"event_id"`
	OperationID       string    `gorm:"type:uuid;not null;index"                       json:"operation_id"`
	OperationStatusID string    `gorm:"type:uuid;not null"                             json:"operation_status_id"`
	CreatedAt         time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`

	OperationStatus *OperationStatus `gorm:"foreignKey:OperationStatusID;references:OperationStatusID" json:"operation_status,omitempty"`
}

func (OperationStatusEvent) TableName() string { return "operation_status_events" }
