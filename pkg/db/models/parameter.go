package models

import "github.com/google/uuid"

// Parameter is the global vocabulary of characteristic names ("Color",
// "Capacity"). Values live on ProductParameter.
type Parameter struct {
	ID   uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name string    `gorm:"column:name;not null;uniqueIndex"`
}

// ProductParameter carries one characteristic value of a shop listing. The
// whole set is replaced on every import of that listing.
type ProductParameter struct {
	ID            uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ProductInfoID uuid.UUID  `gorm:"column:product_info_id;type:uuid;not null;uniqueIndex:idx_product_parameters_info_param"`
	ParameterID   uuid.UUID  `gorm:"column:parameter_id;type:uuid;not null;uniqueIndex:idx_product_parameters_info_param"`
	Value         string     `gorm:"column:value;not null"`
	Parameter     *Parameter `gorm:"foreignKey:ParameterID"`
}
