package main

import (
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"seibi/config"
	"seibi/httpx"
	"seibi/parsers"
	"seibi/validation"
)

const maskedSecret = "********"

// GetConfigHandler は現在の設定を返します。JWT の署名鍵は伏せ字にします。
func GetConfigHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg := config.GetConfig()
		cfg.JWTSecret = maskedSecret
		httpx.JSON(w, http.StatusOK, cfg)
	}
}

// SaveConfigHandler は設定を保存します。署名鍵が空か伏せ字なら現在の値を使います。
// 待ち受けアドレスとDBパスの変更は再起動後に反映されます。
func SaveConfigHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var newCfg config.Config
		if err := httpx.DecodeJSON(r, &newCfg); err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "リクエストが不正です。", err.Error())
			return
		}
		if newCfg.JWTSecret == "" || newCfg.JWTSecret == maskedSecret {
			newCfg.JWTSecret = config.GetConfig().JWTSecret
		}
		if err := validateConfig(newCfg); err != nil {
			httpx.ServiceError(w, err, "設定が不正です。")
			return
		}

		if err := config.SaveConfig(newCfg); err != nil {
			log.Printf("Error saving config: %v", err)
			httpx.JSONError(w, http.StatusInternalServerError, "設定の保存に失敗しました。", err.Error())
			return
		}
		httpx.Message(w, "設定を保存しました。")
	}
}

func validateConfig(c config.Config) error {
	viol := validation.Violations{}
	if c.DefaultTaxRate < 0 || c.DefaultTaxRate > 100 {
		viol["defaultTaxRate"] = "out_of_range"
	}
	if c.CSVEncoding != "" {
		if _, err := parsers.LookupEncoding(c.CSVEncoding); err != nil {
			viol["csvEncoding"] = "unsupported"
		}
	}
	if c.JWTExpiry != "" {
		if d, err := time.ParseDuration(c.JWTExpiry); err != nil || d <= 0 {
			viol["jwtExpiry"] = "invalid_duration"
		}
	}
	if c.ImportBatchSize < 0 {
		viol["importBatchSize"] = "must_not_be_negative"
	}
	return viol.Err()
}
