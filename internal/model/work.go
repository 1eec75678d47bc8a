package model

// WorkType 产品类型表，对应 work_types
type WorkType struct {
	WorkTypeID string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"work_type_id"`
	Name       string  `gorm:"type:varchar(128);not null"                     json:"name"`
	Cost       float64 `gorm:"type:numeric(9,2);not null;default:0"           json:"cost"`
	BaseModel

	// 关联：按序号排列的工序模板
	Steps []WorkTypeOperationType `gorm:"foreignKey:WorkTypeID" json:"steps,omitempty"`
}

func (WorkType) TableName() string { return "work_types" }

// WorkTypeOperationType 产品类型的工序模板，对应 work_type_operation_types
type WorkTypeOperationType struct {
	WorkTypeID      string `gorm:"type:uuid;primaryKey"    json:"work_type_id"`
	OrdinalNumber   int    `gorm:"primaryKey"              json:"ordinal_number"`
	OperationTypeID string `gorm:"type:uuid;not null"      json:"operation_type_id"`

	OperationType *OperationType `gorm:"foreignKey:OperationTypeID;references:OperationTypeID" json:"operation_type,omitempty"`
}

func (WorkTypeOperationType) TableName() string { return "work_type_operation_types" }

// Work 产品表，对应 works，截止日期继承自所属订单
type Work struct {
	WorkID     string   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"work_id"`
	OrderID    string   `gorm:"type:uuid;not null"                             json:"order_id"`
	WorkTypeID string   `gorm:"type:uuid;not null"                             json:"work_type_id"`
	Status     string   `gorm:"type:varchar(20);not null;default:'new'"        json:"status"`
	Amount     int      `gorm:"not null;default:1"                             json:"amount"`
	Teeth      IntArray `gorm:"type:int[];not null;default:'{}'"               json:"teeth"`
	BaseModel

	// 关联
	Order      *Order      `gorm:"foreignKey:OrderID;references:OrderID"       json:"order,omitempty"`
	WorkType   *WorkType   `gorm:"foreignKey:WorkTypeID;references:WorkTypeID" json:"work_type,omitempty"`
	Operations []Operation `gorm:"foreignKey:WorkID"                           json:"operations,omitempty"`
}

func (Work) TableName() string { return "works" }
