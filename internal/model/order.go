package model

import "time"

// Order 订单表，对应 orders
type Order struct {
	OrderID    string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"order_id"`
	CustomerID *string   `gorm:"type:uuid"                                      json:"customer_id,omitempty"`
	Status     string    `gorm:"type:varchar(20);not null;default:'new'"        json:"status"`
	OrderDate  time.Time `gorm:"type:date;not null;default:CURRENT_DATE"        json:"order_date"`
	Deadline   time.Time `gorm:"type:date;not null"                             json:"deadline"`
	Discount   int       `gorm:"type:smallint;not null;default:0"               json:"discount"`
	Comment    string    `gorm:"type:varchar(512);not null;default:''"          json:"comment"`
	BaseModel

	// 关联
	Customer *User  `gorm:"foreignKey:CustomerID;references:UserID" json:"customer,omitempty"`
	Works    []Work `gorm:"foreignKey:OrderID"                      json:"works,omitempty"`
}

func (Order) TableName() string { return "orders" }
