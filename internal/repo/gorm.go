package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/shopcart/internal/models"
)

type GormRepo struct {
	DB *gorm.DB
}

type cartRecord struct {
	ID         string       `gorm:"primaryKey"`
	UserID     string       `gorm:"uniqueIndex;not null"`
	TotalPrice float64      `gorm:"not null"`
	CreatedAt  time.Time    `gorm:"autoCreateTime:false"`
	UpdatedAt  time.Time    `gorm:"autoUpdateTime:false"`
	Lines      []lineRecord `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
}

func (cartRecord) TableName() string { return "carts" }

type lineRecord struct {
	ID       string `gorm:"primaryKey"`
	CartID   string `gorm:"index;not null"`
	Position int    `gorm:"not null"`
	ItemID   string `gorm:"not null"`
	ItemType string `gorm:"not null"`
	Name     string
	Price    float64
	ImageURL string
	Quantity int `gorm:"not null;check:quantity>0"`
}

func (lineRecord) TableName() string { return "cart_lines" }

type orderRecord struct {
	ID              string                 `gorm:"primaryKey"`
	UserID          string                 `gorm:"index:idx_orders_user_created,priority:1;not null"`
	ShippingAddress models.ShippingAddress `gorm:"embedded;embeddedPrefix:shipping_"`
	PaymentMethod   string
	PaymentID       string
	PaymentStatus   string
	PaymentUpdated  string
	PaymentEmail    string
	ItemsPrice      float64
	TaxPrice        float64
	ShippingPrice   float64
	TotalPrice      float64
	Status          string `gorm:"not null"`
	IsPaid          bool
	PaidAt          *time.Time
	IsDelivered     bool
	DeliveredAt     *time.Time
	CreatedAt       time.Time         `gorm:"autoCreateTime:false;index:idx_orders_user_created,priority:2"`
	UpdatedAt       time.Time         `gorm:"autoUpdateTime:false"`
	Lines           []orderLineRecord `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

func (orderRecord) TableName() string { return "orders" }

type orderLineRecord struct {
	OrderID  string `gorm:"primaryKey"`
	ID       string `gorm:"primaryKey"`
	Position int    `gorm:"not null"`
	ItemID   string `gorm:"not null"`
	ItemType string `gorm:"not null"`
	Name     string
	Price    float64
	ImageURL string
	Quantity int `gorm:"not null"`
}

func (orderLineRecord) TableName() string { return "order_lines" }

func (r *GormRepo) Migrate() error {
	return r.DB.AutoMigrate(&cartRecord{}, &lineRecord{}, &orderRecord{}, &orderLineRecord{})
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

func toCartRecord(c *models.Cart) cartRecord {
	rec := cartRecord{
		ID:         c.ID,
		UserID:     c.UserID,
		TotalPrice: c.TotalPrice,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
		Lines:      make([]lineRecord, len(c.Lines)),
	}
	for i, l := range c.Lines {
		rec.Lines[i] = lineRecord{
			ID:       l.ID,
			CartID:   c.ID,
			Position: i,
			ItemID:   l.ItemID,
			ItemType: string(l.ItemType),
			Name:     l.Name,
			Price:    l.Price,
			ImageURL: l.ImageURL,
			Quantity: l.Quantity,
		}
	}
	return rec
}

func (rec cartRecord) toModel() *models.Cart {
	c := &models.Cart{
		ID:         rec.ID,
		UserID:     rec.UserID,
		TotalPrice: rec.TotalPrice,
		CreatedAt:  rec.CreatedAt,
		UpdatedAt:  rec.UpdatedAt,
		Lines:      make([]models.Line, len(rec.Lines)),
	}
	for i, l := range rec.Lines {
		c.Lines[i] = models.Line{
			ID:       l.ID,
			ItemID:   l.ItemID,
			ItemType: models.ItemType(l.ItemType),
			Name:     l.Name,
			Price:    l.Price,
			ImageURL: l.ImageURL,
			Quantity: l.Quantity,
		}
	}
	return c
}

func byPosition(db *gorm.DB) *gorm.DB { return db.Order("position") }

func (r *GormRepo) GetByUser(ctx context.Context, userID string) (*models.Cart, error) {
	var rec cartRecord
	err := r.DB.WithContext(ctx).
		Preload("Lines", byPosition).
		Where("user_id = ?", userID).
		Take(&rec).Error
	if err != nil {
		return nil, translate(err)
	}
	return rec.toModel(), nil
}

func (r *GormRepo) Create(ctx context.Context, c *models.Cart) error {
	rec := toCartRecord(c)
	return translate(r.DB.WithContext(ctx).Create(&rec).Error)
}

// Save replaces the stored cart, lines included, in one transaction.
func (r *GormRepo) Save(ctx context.Context, c *models.Cart) error {
	rec := toCartRecord(c)
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&cartRecord{ID: rec.ID}).
			Omit(clause.Associations).
			Select("user_id", "total_price", "updated_at").
			Updates(&rec)
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := tx.Where("cart_id = ?", rec.ID).Delete(&lineRecord{}).Error; err != nil {
			return err
		}
		if len(rec.Lines) == 0 {
			return nil
		}
		return translate(tx.Create(&rec.Lines).Error)
	})
}

func toOrderRecord(o *models.Order) orderRecord {
	rec := orderRecord{
		ID:              o.ID,
		UserID:          o.UserID,
		ShippingAddress: o.ShippingAddress,
		PaymentMethod:   o.PaymentMethod,
		ItemsPrice:      o.ItemsPrice,
		TaxPrice:        o.TaxPrice,
		ShippingPrice:   o.ShippingPrice,
		TotalPrice:      o.TotalPrice,
		Status:          string(o.Status),
		IsPaid:          o.IsPaid,
		PaidAt:          o.PaidAt,
		IsDelivered:     o.IsDelivered,
		DeliveredAt:     o.DeliveredAt,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
		Lines:           make([]orderLineRecord, len(o.Lines)),
	}
	if pr := o.PaymentResult; pr != nil {
		rec.PaymentID = pr.ID
		rec.PaymentStatus = pr.Status
		rec.PaymentUpdated = pr.UpdateTime
		rec.PaymentEmail = pr.EmailAddress
	}
	for i, l := range o.Lines {
		rec.Lines[i] = orderLineRecord{
			OrderID:  o.ID,
			ID:       l.ID,
			Position: i,
			ItemID:   l.ItemID,
			ItemType: string(l.ItemType),
			Name:     l.Name,
			Price:    l.Price,
			ImageURL: l.ImageURL,
			Quantity: l.Quantity,
		}
	}
	return rec
}

func (rec orderRecord) toModel() *models.Order {
	o := &models.Order{
		ID:              rec.ID,
		UserID:          rec.UserID,
		ShippingAddress: rec.ShippingAddress,
		PaymentMethod:   rec.PaymentMethod,
		ItemsPrice:      rec.ItemsPrice,
		TaxPrice:        rec.TaxPrice,
		ShippingPrice:   rec.ShippingPrice,
		TotalPrice:      rec.TotalPrice,
		Status:          models.OrderStatus(rec.Status),
		IsPaid:          rec.IsPaid,
		PaidAt:          rec.PaidAt,
		IsDelivered:     rec.IsDelivered,
		DeliveredAt:     rec.DeliveredAt,
		CreatedAt:       rec.CreatedAt,
		UpdatedAt:       rec.UpdatedAt,
		Lines:           make([]models.Line, len(rec.Lines)),
	}
	if rec.PaymentID != "" || rec.PaymentStatus != "" {
		o.PaymentResult = &models.PaymentResult{
			ID:           rec.PaymentID,
			Status:       rec.PaymentStatus,
			UpdateTime:   rec.PaymentUpdated,
			EmailAddress: rec.PaymentEmail,
		}
	}
	for i, l := range rec.Lines {
		o.Lines[i] = models.Line{
			ID:       l.ID,
			ItemID:   l.ItemID,
			ItemType: models.ItemType(l.ItemType),
			Name:     l.Name,
			Price:    l.Price,
			ImageURL: l.ImageURL,
			Quantity: l.Quantity,
		}
	}
	return o
}

func (r *GormRepo) CreateOrder(ctx context.Context, o *models.Order) error {
	rec := toOrderRecord(o)
	return translate(r.DB.WithContext(ctx).Create(&rec).Error)
}

func (r *GormRepo) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	var rec orderRecord
	err := r.DB.WithContext(ctx).Preload("Lines", byPosition).Where("id = ?", orderID).Take(&rec).Error
	if err != nil {
		return nil, translate(err)
	}
	return rec.toModel(), nil
}

func (r *GormRepo) ListOrdersByUser(ctx context.Context, userID string, offset, limit int) ([]models.Order, error) {
	q := r.DB.WithContext(ctx).
		Preload("Lines", byPosition).
		Where("user_id = ?", userID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Offset(offset).Limit(limit)
	}
	var recs []orderRecord
	err := q.Find(&recs).Error
	if err != nil {
		return nil, err
	}
	out := make([]models.Order, len(recs))
	for i := range recs {
		out[i] = *recs[i].toModel()
	}
	return out, nil
}

// SaveOrder updates the mutable order fields; lines never change after placement.
func (r *GormRepo) SaveOrder(ctx context.Context, o *models.Order) error {
	rec := toOrderRecord(o)
	res := r.DB.WithContext(ctx).
		Model(&orderRecord{ID: rec.ID}).
		Omit(clause.Associations).
		Select("status", "is_paid", "paid_at", "is_delivered", "delivered_at",
			"payment_id", "payment_status", "payment_updated", "payment_email", "updated_at").
		Updates(&rec)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
