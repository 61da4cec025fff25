// Package masteredit は部品・車両区分・法定費用・発行者情報・メール設定の
// マスター編集APIです。
package masteredit

import (
	"errors"
	"seibi/database"
	"seibi/kana"
	"seibi/model"
	"seibi/validation"
	"strings"
)

func validatePart(p *model.Part) error {
	p.PartNumber = kana.NormalizeWidth(strings.TrimSpace(p.PartNumber))
	p.Name = strings.TrimSpace(p.Name)
	viol := validation.Violations{}
	validation.Required("name", p.Name, viol)
	validation.MaxLength("name", p.Name, 100, viol)
	validation.MaxLength("partNumber", p.PartNumber, 50, viol)
	validation.NonNegativeDecimal("unitPrice", p.UnitPrice, viol)
	validation.MaxLength("notes", p.Notes, 500, viol)
	return viol.Err()
}

// validateCategory は名称の重複も確認します (自分自身は除く)。
func validateCategory(dbtx database.DBTX, c *model.VehicleCategory) error {
	c.Name = strings.TrimSpace(c.Name)
	viol := validation.Violations{}
	validation.Required("name", c.Name, viol)
	validation.MaxLength("name", c.Name, 50, viol)
	if c.Name != "" {
		cats, err := database.GetVehicleCategories(dbtx)
		if err != nil {
			return err
		}
		for _, other := range cats {
			if other.Name == c.Name && other.ID != c.ID {
				viol["name"] = "already_exists"
			}
		}
	}
	return viol.Err()
}

func validateFee(dbtx database.DBTX, f *model.StatutoryFee) error {
	f.Name = strings.TrimSpace(f.Name)
	viol := validation.Violations{}
	validation.Required("name", f.Name, viol)
	validation.MaxLength("name", f.Name, 100, viol)
	validation.NonNegativeDecimal("amount", f.Amount, viol)
	if _, err := database.GetVehicleCategory(dbtx, f.VehicleCategoryID); err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			return err
		}
		viol["vehicleCategoryId"] = "not_found"
	}
	return viol.Err()
}

func validateIssuer(info *model.IssuerInfo) error {
	viol := validation.Violations{}
	validation.Required("companyName", info.CompanyName, viol)
	validation.MaxLength("companyName", info.CompanyName, 100, viol)
	validation.Email("email", info.Email, viol)
	validation.MaxLength("registrationNumber", info.RegistrationNumber, 20, viol)
	validation.MaxLength("bankInfo", info.BankInfo, 500, viol)
	return viol.Err()
}

func validateEmailSettings(s *model.EmailSettings) error {
	viol := validation.Violations{}
	validation.Required("smtpHost", s.SMTPHost, viol)
	validation.RangeInt("smtpPort", s.SMTPPort, 1, 65535, viol)
	validation.Required("fromAddress", s.FromAddress, viol)
	validation.Email("fromAddress", s.FromAddress, viol)
	return viol.Err()
}
