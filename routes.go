package main

import (
	"net/http"

	"github.com/jmoiron/sqlx"

	"seibi/auth"
	"seibi/automation"
	"seibi/backup"
	"seibi/client"
	"seibi/invoice"
	"seibi/loader"
	"seibi/mailer"
	"seibi/masteredit"
	"seibi/vehicle"
)

// SetupRoutes registers every /api endpoint. Authentication is applied around
// the whole mux by auth.Service.Middleware; admin-only endpoints are wrapped here.
func SetupRoutes(mux *http.ServeMux, dbConn *sqlx.DB, authSvc *auth.Service, sender mailer.Sender) {
	admin := auth.RequireAdmin

	// auth
	mux.HandleFunc("POST /api/auth/login", auth.LoginHandler(authSvc))
	mux.HandleFunc("POST /api/auth/reset-request", auth.ResetRequestHandler(authSvc))
	mux.HandleFunc("POST /api/auth/reset-password", auth.ResetPasswordHandler(authSvc))
	mux.HandleFunc("GET /api/auth/me", auth.MeHandler())
	mux.HandleFunc("GET /api/users", admin(auth.ListUsersHandler(authSvc)))
	mux.HandleFunc("POST /api/users", admin(auth.CreateUserHandler(authSvc)))

	// clients
	mux.HandleFunc("GET /api/clients", client.ListClientsHandler(dbConn))
	mux.HandleFunc("POST /api/clients", client.CreateClientHandler(dbConn))
	mux.HandleFunc("POST /api/clients/import", client.ImportClientsHandler(dbConn))
	mux.HandleFunc("GET /api/clients/{id}", client.GetClientHandler(dbConn))
	mux.HandleFunc("PUT /api/clients/{id}", client.UpdateClientHandler(dbConn))
	mux.HandleFunc("DELETE /api/clients/{id}", client.DeleteClientHandler(dbConn))

	// vehicles
	mux.HandleFunc("GET /api/vehicles", vehicle.ListVehiclesHandler(dbConn))
	mux.HandleFunc("POST /api/vehicles", vehicle.CreateVehicleHandler(dbConn))
	mux.HandleFunc("POST /api/vehicles/import", vehicle.ImportCSVHandler(dbConn))
	mux.HandleFunc("POST /api/vehicles/certificate", vehicle.ImportCertificateHandler(dbConn))
	mux.HandleFunc("GET /api/vehicles/{id}", vehicle.GetVehicleHandler(dbConn))
	mux.HandleFunc("PUT /api/vehicles/{id}", vehicle.UpdateVehicleHandler(dbConn))
	mux.HandleFunc("DELETE /api/vehicles/{id}", vehicle.DeleteVehicleHandler(dbConn))

	// invoices
	mux.HandleFunc("GET /api/invoices", invoice.ListInvoicesHandler(dbConn))
	mux.HandleFunc("POST /api/invoices", invoice.CreateInvoiceHandler(dbConn))
	mux.HandleFunc("GET /api/invoices/{id}", invoice.GetInvoiceHandler(dbConn))
	mux.HandleFunc("PUT /api/invoices/{id}", invoice.UpdateInvoiceHandler(dbConn))
	mux.HandleFunc("DELETE /api/invoices/{id}", invoice.DeleteInvoiceHandler(dbConn))
	mux.HandleFunc("POST /api/invoices/{id}/details", invoice.AddDetailHandler(dbConn))
	mux.HandleFunc("PUT /api/invoices/{id}/details/{detailId}", invoice.UpdateDetailHandler(dbConn))
	mux.HandleFunc("DELETE /api/invoices/{id}/details/{detailId}", invoice.DeleteDetailHandler(dbConn))
	mux.HandleFunc("POST /api/invoices/{id}/statutory-fees", invoice.AddStatutoryFeesHandler(dbConn))
	mux.HandleFunc("POST /api/invoices/{id}/split", invoice.SplitInvoiceHandler(dbConn))
	mux.HandleFunc("GET /api/invoices/{id}/excel", invoice.ExportExcelHandler(dbConn))
	mux.HandleFunc("GET /api/invoices/{id}/print", invoice.PrintViewHandler(dbConn))
	mux.HandleFunc("GET /api/invoices/{id}/pdf", automation.InvoicePDFHandler(dbConn))
	mux.HandleFunc("POST /api/invoices/{id}/email", invoice.EmailInvoiceHandler(dbConn, sender))

	// masters
	mux.HandleFunc("GET /api/parts", masteredit.ListPartsHandler(dbConn))
	mux.HandleFunc("POST /api/parts", masteredit.CreatePartHandler(dbConn))
	mux.HandleFunc("POST /api/parts/import", loader.UploadPartsCSVHandler(dbConn))
	mux.HandleFunc("PUT /api/parts/{id}", masteredit.UpdatePartHandler(dbConn))
	mux.HandleFunc("DELETE /api/parts/{id}", masteredit.DeletePartHandler(dbConn))

	mux.HandleFunc("GET /api/vehicle-categories", masteredit.ListCategoriesHandler(dbConn))
	mux.HandleFunc("POST /api/vehicle-categories", masteredit.CreateCategoryHandler(dbConn))
	mux.HandleFunc("PUT /api/vehicle-categories/{id}", masteredit.UpdateCategoryHandler(dbConn))
	mux.HandleFunc("DELETE /api/vehicle-categories/{id}", masteredit.DeleteCategoryHandler(dbConn))
	mux.HandleFunc("GET /api/vehicle-categories/{id}/fees", masteredit.ListStatutoryFeesHandler(dbConn))
	mux.HandleFunc("POST /api/vehicle-categories/{id}/fees", masteredit.CreateStatutoryFeeHandler(dbConn))
	mux.HandleFunc("PUT /api/statutory-fees/{id}", masteredit.UpdateStatutoryFeeHandler(dbConn))
	mux.HandleFunc("DELETE /api/statutory-fees/{id}", masteredit.DeleteStatutoryFeeHandler(dbConn))

	mux.HandleFunc("GET /api/issuer", masteredit.GetIssuerInfoHandler(dbConn))
	mux.HandleFunc("PUT /api/issuer", masteredit.SaveIssuerInfoHandler(dbConn))
	mux.HandleFunc("GET /api/email-settings", admin(masteredit.GetEmailSettingsHandler(dbConn)))
	mux.HandleFunc("PUT /api/email-settings", admin(masteredit.SaveEmailSettingsHandler(dbConn)))

	// backup / settings
	mux.HandleFunc("GET /api/backup", admin(backup.ExportHandler(dbConn)))
	mux.HandleFunc("POST /api/restore", admin(backup.RestoreHandler(dbConn)))
	mux.HandleFunc("GET /api/config", admin(GetConfigHandler()))
	mux.HandleFunc("POST /api/config", admin(SaveConfigHandler()))
}
