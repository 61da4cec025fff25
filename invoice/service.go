package invoice

import (
	"errors"
	"fmt"
	"seibi/config"
	"seibi/database"
	"seibi/mappers"
	"seibi/model"
	"seibi/parsers"
	"seibi/validation"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// InvoiceInput は請求書ヘッダーの作成・更新の入力です。日付は "2006-01-02" などの文字列で受け取ります。
type InvoiceInput struct {
	ClientID           int64            `json:"clientId"`
	VehicleID          *int64           `json:"vehicleId"`
	InvoiceDate        string           `json:"invoiceDate"`
	WorkCompletedDate  string           `json:"workCompletedDate"`
	NextInspectionDate string           `json:"nextInspectionDate"`
	Mileage            *int             `json:"mileage"`
	TaxRate            *decimal.Decimal `json:"taxRate"`
	Notes              string           `json:"notes"`
	Details            []DetailInput    `json:"details"`
}

// DetailInput は明細の追加・更新の入力です。
type DetailInput struct {
	PartID       *int64          `json:"partId"`
	ItemName     string          `json:"itemName"`
	Type         string          `json:"type"`
	RepairMethod string          `json:"repairMethod"`
	Quantity     decimal.Decimal `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	LaborCost    decimal.Decimal `json:"laborCost"`
	IsTaxable    *bool           `json:"isTaxable"`
	DisplayOrder *int            `json:"displayOrder"`
}

// Service は請求書の保存と、明細の変更ごとの合計の再計算を行います。
type Service struct {
	db             *sqlx.DB
	Now            func() time.Time
	DefaultTaxRate func() decimal.Decimal
}

func NewService(db *sqlx.DB) *Service {
	return &Service{
		db:  db,
		Now: time.Now,
		DefaultTaxRate: func() decimal.Decimal {
			return decimal.NewFromFloat(config.GetConfig().DefaultTaxRate)
		},
	}
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}

func parseDateField(field, value string, v validation.Violations) *time.Time {
	if value == "" {
		return nil
	}
	d := parsers.ParseDate(value)
	if d == nil {
		v[field] = "invalid_date"
	}
	return d
}

func validateTaxRate(rate decimal.Decimal, v validation.Violations) {
	if rate.IsNegative() || rate.GreaterThan(hundred) {
		v["taxRate"] = "out_of_range"
	}
}

func (in *DetailInput) validate(prefix string, v validation.Violations) {
	validation.Required(prefix+"itemName", in.ItemName, v)
	validation.MaxLength(prefix+"itemName", in.ItemName, 200, v)
	validation.MaxLength(prefix+"repairMethod", in.RepairMethod, 100, v)
	validation.PositiveDecimal(prefix+"quantity", in.Quantity, v)
	validation.NonNegativeDecimal(prefix+"unitPrice", in.UnitPrice, v)
	validation.NonNegativeDecimal(prefix+"laborCost", in.LaborCost, v)
	if in.Type != "" && in.Type != model.DetailTypeStatutory {
		v[prefix+"type"] = "invalid"
	}
}

// toDetail は入力を明細にします。課税区分の指定が無ければ法定費用は非課税、それ以外は課税です。
func (in *DetailInput) toDetail(invoiceID int64, order int) model.InvoiceDetail {
	taxable := in.Type != model.DetailTypeStatutory
	if in.IsTaxable != nil {
		taxable = *in.IsTaxable
	}
	if in.DisplayOrder != nil {
		order = *in.DisplayOrder
	}
	return model.InvoiceDetail{
		InvoiceID:    invoiceID,
		PartID:       in.PartID,
		ItemName:     in.ItemName,
		Type:         in.Type,
		RepairMethod: in.RepairMethod,
		Quantity:     in.Quantity,
		UnitPrice:    in.UnitPrice,
		LaborCost:    in.LaborCost,
		IsTaxable:    taxable,
		DisplayOrder: order,
	}
}

// fillFromPart は部品が指定され、品名・単価が空の場合に部品マスタの値で補います。
func fillFromPart(dbtx database.DBTX, in *DetailInput) error {
	if in.PartID == nil {
		return nil
	}
	part, err := database.GetPart(dbtx, *in.PartID)
	if errors.Is(err, database.ErrNotFound) {
		return validation.Violations{"partId": "not_found"}.Err()
	}
	if err != nil {
		return err
	}
	if in.ItemName == "" {
		in.ItemName = part.Name
	}
	if in.UnitPrice.IsZero() {
		in.UnitPrice = part.UnitPrice
	}
	return nil
}

// checkParties は顧客の存在と、車両がその顧客のものであることを確認します。
func checkParties(dbtx database.DBTX, clientID int64, vehicleID *int64, v validation.Violations) error {
	if _, err := database.GetClient(dbtx, clientID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			v["clientId"] = "not_found"
			return nil
		}
		return err
	}
	if vehicleID == nil {
		return nil
	}
	vehicle, err := database.GetVehicle(dbtx, *vehicleID)
	if errors.Is(err, database.ErrNotFound) {
		v["vehicleId"] = "not_found"
		return nil
	}
	if err != nil {
		return err
	}
	if vehicle.ClientID != clientID {
		v["vehicleId"] = "client_mismatch"
	}
	return nil
}

// Create は請求書番号を採番して請求書を作成します (枝番は0)。
// 日付の指定が無ければ今日、税率の指定が無ければ設定の既定値を使います。
func (s *Service) Create(in InvoiceInput) (*model.Invoice, error) {
	var id int64
	err := database.WithTx(s.db, func(tx *sqlx.Tx) error {
		v := validation.Violations{}
		if in.ClientID <= 0 {
			v["clientId"] = "required"
		}
		invoiceDate := parseDateField("invoiceDate", in.InvoiceDate, v)
		workDate := parseDateField("workCompletedDate", in.WorkCompletedDate, v)
		nextDate := parseDateField("nextInspectionDate", in.NextInspectionDate, v)
		validation.MaxLength("notes", in.Notes, 1000, v)
		taxRate := s.DefaultTaxRate()
		if in.TaxRate != nil {
			taxRate = *in.TaxRate
		}
		validateTaxRate(taxRate, v)
		for i := range in.Details {
			if err := fillFromPart(tx, &in.Details[i]); err != nil {
				return err
			}
			in.Details[i].validate(fmt.Sprintf("details[%d].", i), v)
		}
		if in.ClientID > 0 {
			if err := checkParties(tx, in.ClientID, in.VehicleID, v); err != nil {
				return err
			}
		}
		if err := v.Err(); err != nil {
			return err
		}

		now := s.Now()
		number, err := GenerateInvoiceNumber(in.ClientID, now, func(prefix string) ([]string, error) {
			return database.InvoiceNumbersWithPrefix(tx, prefix)
		})
		if err != nil {
			return err
		}

		today := dateOnly(now)
		inv := &model.Invoice{
			InvoiceNumber:      number,
			ClientID:           in.ClientID,
			VehicleID:          in.VehicleID,
			InvoiceDate:        today,
			WorkCompletedDate:  today,
			NextInspectionDate: nextDate,
			Mileage:            in.Mileage,
			TaxRate:            taxRate,
			Notes:              in.Notes,
		}
		if invoiceDate != nil {
			inv.InvoiceDate = *invoiceDate
		}
		if workDate != nil {
			inv.WorkCompletedDate = *workDate
		}
		if err := database.CreateInvoice(tx, inv); err != nil {
			return err
		}
		for i := range in.Details {
			d := in.Details[i].toDetail(inv.ID, i+1)
			if err := database.CreateInvoiceDetail(tx, &d); err != nil {
				return err
			}
		}
		if err := recalculate(tx, inv); err != nil {
			return err
		}
		id = inv.ID
		log.Printf("Invoice created: %s (ID: %d, ClientID: %d)", number, inv.ID, inv.ClientID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(id)
}

// Update はヘッダーを更新し、税率が変わることがあるので合計を再計算します。顧客は変更できません。
func (s *Service) Update(id int64, in InvoiceInput) (*model.Invoice, error) {
	err := database.WithTx(s.db, func(tx *sqlx.Tx) error {
		inv, err := database.GetInvoice(tx, id)
		if err != nil {
			return err
		}
		v := validation.Violations{}
		if in.ClientID != 0 && in.ClientID != inv.ClientID {
			v["clientId"] = "immutable"
		}
		invoiceDate := parseDateField("invoiceDate", in.InvoiceDate, v)
		workDate := parseDateField("workCompletedDate", in.WorkCompletedDate, v)
		nextDate := parseDateField("nextInspectionDate", in.NextInspectionDate, v)
		validation.MaxLength("notes", in.Notes, 1000, v)
		if in.TaxRate != nil {
			validateTaxRate(*in.TaxRate, v)
		}
		if err := checkParties(tx, inv.ClientID, in.VehicleID, v); err != nil {
			return err
		}
		if err := v.Err(); err != nil {
			return err
		}

		inv.VehicleID = in.VehicleID
		if invoiceDate != nil {
			inv.InvoiceDate = *invoiceDate
		}
		if workDate != nil {
			inv.WorkCompletedDate = *workDate
		}
		inv.NextInspectionDate = nextDate
		inv.Mileage = in.Mileage
		if in.TaxRate != nil {
			inv.TaxRate = *in.TaxRate
		}
		inv.Notes = in.Notes
		return recalculate(tx, inv)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(id)
}

// recalculate は保存済みの明細から合計を計算し直して請求書を保存します。
func recalculate(dbtx database.DBTX, inv *model.Invoice) error {
	details, err := database.GetInvoiceDetails(dbtx, inv.ID)
	if err != nil {
		return err
	}
	ApplyTotals(inv, details)
	return database.UpdateInvoice(dbtx, inv)
}

// Recalculate は請求書の合計を明細から計算し直します。
func (s *Service) Recalculate(invoiceID int64) (*model.Invoice, error) {
	err := database.WithTx(s.db, func(tx *sqlx.Tx) error {
		inv, err := database.GetInvoice(tx, invoiceID)
		if err != nil {
			return err
		}
		return recalculate(tx, inv)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(invoiceID)
}

// AddDetail は明細を末尾に追加し、合計を再計算します。
func (s *Service) AddDetail(invoiceID int64, in DetailInput) (*model.InvoiceDetail, error) {
	var detail model.InvoiceDetail
	err := database.WithTx(s.db, func(tx *sqlx.Tx) error {
		inv, err := database.GetInvoice(tx, invoiceID)
		if err != nil {
			return err
		}
		if err := fillFromPart(tx, &in); err != nil {
			return err
		}
		v := validation.Violations{}
		in.validate("", v)
		if err := v.Err(); err != nil {
			return err
		}
		order, err := database.NextDetailOrder(tx, invoiceID)
		if err != nil {
			return err
		}
		detail = in.toDetail(invoiceID, order)
		if err := database.CreateInvoiceDetail(tx, &detail); err != nil {
			return err
		}
		return recalculate(tx, inv)
	})
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

// UpdateDetail は明細を更新し、合計を再計算します。
func (s *Service) UpdateDetail(invoiceID, detailID int64, in DetailInput) (*model.InvoiceDetail, error) {
	var detail model.InvoiceDetail
	err := database.WithTx(s.db, func(tx *sqlx.Tx) error {
		inv, current, err := loadDetail(tx, invoiceID, detailID)
		if err != nil {
			return err
		}
		if err := fillFromPart(tx, &in); err != nil {
			return err
		}
		v := validation.Violations{}
		in.validate("", v)
		if err := v.Err(); err != nil {
			return err
		}
		detail = in.toDetail(invoiceID, current.DisplayOrder)
		detail.ID = detailID
		if err := database.UpdateInvoiceDetail(tx, &detail); err != nil {
			return err
		}
		return recalculate(tx, inv)
	})
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

// DeleteDetail は明細を削除し、合計を再計算します。
func (s *Service) DeleteDetail(invoiceID, detailID int64) error {
	return database.WithTx(s.db, func(tx *sqlx.Tx) error {
		inv, _, err := loadDetail(tx, invoiceID, detailID)
		if err != nil {
			return err
		}
		if err := database.DeleteInvoiceDetail(tx, detailID); err != nil {
			return err
		}
		return recalculate(tx, inv)
	})
}

// loadDetail は請求書と、それに属する明細を取得します。別の請求書の明細は ErrNotFound です。
func loadDetail(dbtx database.DBTX, invoiceID, detailID int64) (*model.Invoice, *model.InvoiceDetail, error) {
	inv, err := database.GetInvoice(dbtx, invoiceID)
	if err != nil {
		return nil, nil, err
	}
	d, err := database.GetInvoiceDetail(dbtx, detailID)
	if err != nil {
		return nil, nil, err
	}
	if d.InvoiceID != invoiceID {
		return nil, nil, database.ErrNotFound
	}
	return inv, d, nil
}

// AddStatutoryFees は車両区分の法定費用を「法定費用」明細として追加し、合計を再計算します。
func (s *Service) AddStatutoryFees(invoiceID, categoryID int64) ([]model.InvoiceDetail, error) {
	var added []model.InvoiceDetail
	err := database.WithTx(s.db, func(tx *sqlx.Tx) error {
		inv, err := database.GetInvoice(tx, invoiceID)
		if err != nil {
			return err
		}
		if _, err := database.GetVehicleCategory(tx, categoryID); err != nil {
			return err
		}
		fees, err := database.GetStatutoryFeesByCategory(tx, categoryID)
		if err != nil {
			return err
		}
		order, err := database.NextDetailOrder(tx, invoiceID)
		if err != nil {
			return err
		}
		for i, f := range fees {
			d := model.InvoiceDetail{
				InvoiceID:    invoiceID,
				ItemName:     f.Name,
				Type:         model.DetailTypeStatutory,
				Quantity:     decimal.NewFromInt(1),
				UnitPrice:    f.Amount,
				LaborCost:    decimal.Zero,
				IsTaxable:    f.IsTaxable,
				DisplayOrder: order + i,
			}
			if err := database.CreateInvoiceDetail(tx, &d); err != nil {
				return err
			}
			added = append(added, d)
		}
		return recalculate(tx, inv)
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

// Split は同じ請求書番号で次の枝番の請求書を作り、指定した明細をそちらへ移します。
// 明細の指定が無ければ空の請求書になります。両方の合計を再計算します。
func (s *Service) Split(invoiceID int64, detailIDs []int64) (*model.Invoice, error) {
	var newID int64
	err := database.WithTx(s.db, func(tx *sqlx.Tx) error {
		src, err := database.GetInvoice(tx, invoiceID)
		if err != nil {
			return err
		}
		for _, id := range detailIDs {
			if _, _, err := loadDetail(tx, invoiceID, id); err != nil {
				return fmt.Errorf("明細 %d はこの請求書にありません: %w", id, err)
			}
		}
		maxSub, err := database.MaxSubNumber(tx, src.InvoiceNumber)
		if err != nil {
			return err
		}
		sibling := *src
		sibling.ID = 0
		sibling.SubNumber = maxSub + 1
		sibling.CreatedAt = time.Time{}
		sibling.Details = nil
		if err := database.CreateInvoice(tx, &sibling); err != nil {
			return err
		}
		if err := database.MoveInvoiceDetails(tx, sibling.ID, detailIDs); err != nil {
			return err
		}
		if err := recalculate(tx, src); err != nil {
			return err
		}
		if err := recalculate(tx, &sibling); err != nil {
			return err
		}
		newID = sibling.ID
		log.Printf("Invoice split: %s-%d -> %s-%d (%d details)",
			src.InvoiceNumber, src.SubNumber, sibling.InvoiceNumber, sibling.SubNumber, len(detailIDs))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(newID)
}

func (s *Service) Delete(id int64) error {
	return database.DeleteInvoice(s.db, id)
}

// Get は明細 (表示順) を含めて請求書を返します。
func (s *Service) Get(id int64) (*model.Invoice, error) {
	inv, err := database.GetInvoice(s.db, id)
	if err != nil {
		return nil, err
	}
	details, err := database.GetInvoiceDetails(s.db, id)
	if err != nil {
		return nil, err
	}
	inv.Details = details
	return inv, nil
}

// List は請求書の一覧 (明細なし) です。clientID が0なら全件です。
func (s *Service) List(clientID int64) ([]model.Invoice, error) {
	return database.ListInvoices(s.db, clientID)
}

// View は請求書の出力用データを組み立てます。
func (s *Service) View(id int64) (mappers.InvoiceView, error) {
	inv, err := s.Get(id)
	if err != nil {
		return mappers.InvoiceView{}, err
	}
	client, err := database.GetClient(s.db, inv.ClientID)
	if err != nil {
		return mappers.InvoiceView{}, fmt.Errorf("顧客の取得に失敗 (ID: %d): %w", inv.ClientID, err)
	}
	var vehicle *model.Vehicle
	if inv.VehicleID != nil {
		vehicle, err = database.GetVehicle(s.db, *inv.VehicleID)
		if err != nil && !errors.Is(err, database.ErrNotFound) {
			return mappers.InvoiceView{}, err
		}
	}
	issuer, err := database.GetIssuerInfo(s.db)
	if err != nil {
		return mappers.InvoiceView{}, err
	}
	return mappers.BuildInvoiceView(inv, client, vehicle, issuer), nil
}
