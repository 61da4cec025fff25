package database

import (
	"fmt"
	"seibi/model"
	"time"
)

var clientColumns = []string{
	"name", "kana", "email", "zip", "prefecture", "address", "building", "phone",
	"created_at", "updated_at",
}

// CreateClient inserts c and sets its ID.
func CreateClient(dbtx DBTX, c *model.Client) error {
	now := time.Now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	id, err := insertNamed(dbtx, "clients", clientColumns, c)
	if err != nil {
		return fmt.Errorf("CreateClient (Name: %s) failed: %w", c.Name, err)
	}
	c.ID = id
	return nil
}

func UpdateClient(dbtx DBTX, c *model.Client) error {
	c.UpdatedAt = time.Now()
	if err := updateNamed(dbtx, "clients", withoutCreatedAt(clientColumns), c); err != nil {
		return fmt.Errorf("UpdateClient (ID: %d) failed: %w", c.ID, err)
	}
	return nil
}

// BackfillClientAddress fills zip, address and prefecture only where they are blank.
func BackfillClientAddress(dbtx DBTX, id int64, zip, address string, prefecture int) error {
	const q = `
		UPDATE clients SET
			zip = CASE WHEN zip = '' THEN ? ELSE zip END,
			address = CASE WHEN address = '' THEN ? ELSE address END,
			prefecture = CASE WHEN prefecture = 0 THEN ? ELSE prefecture END,
			updated_at = ?
		WHERE id = ?`
	if _, err := dbtx.Exec(q, zip, address, prefecture, time.Now(), id); err != nil {
		return fmt.Errorf("BackfillClientAddress (ID: %d) failed: %w", id, err)
	}
	return nil
}

func GetClient(dbtx DBTX, id int64) (*model.Client, error) {
	var c model.Client
	if err := getByID(dbtx, &c, "clients", id); err != nil {
		return nil, err
	}
	return &c, nil
}

// SearchClients lists clients ordered by kana then name; an empty query lists all.
func SearchClients(dbtx DBTX, query string) ([]model.Client, error) {
	clients := []model.Client{}
	var err error
	if query == "" {
		err = dbtx.Select(&clients, "SELECT * FROM clients ORDER BY kana, name, id")
	} else {
		like := "%" + query + "%"
		err = dbtx.Select(&clients,
			"SELECT * FROM clients WHERE name LIKE ? OR kana LIKE ? OR phone LIKE ? ORDER BY kana, name, id",
			like, like, like)
	}
	if err != nil {
		return nil, fmt.Errorf("SearchClients failed: %w", err)
	}
	return clients, nil
}

func GetAllClients(dbtx DBTX) ([]model.Client, error) {
	clients := []model.Client{}
	if err := dbtx.Select(&clients, "SELECT * FROM clients ORDER BY id"); err != nil {
		return nil, fmt.Errorf("failed to get all clients: %w", err)
	}
	return clients, nil
}

// GetClientMapByName returns the first client per exact name.
func GetClientMapByName(dbtx DBTX) (map[string]model.Client, error) {
	clients, err := GetAllClients(dbtx)
	if err != nil {
		return nil, fmt.Errorf("failed to get client list for map: %w", err)
	}
	m := make(map[string]model.Client, len(clients))
	for _, c := range clients {
		if _, ok := m[c.Name]; !ok {
			m[c.Name] = c
		}
	}
	return m, nil
}

func DeleteClient(dbtx DBTX, id int64) error {
	if err := deleteByID(dbtx, "clients", id); err != nil {
		return fmt.Errorf("DeleteClient (ID: %d) failed: %w", id, err)
	}
	return nil
}

func CountClients(dbtx DBTX) (int, error) {
	var n int
	err := dbtx.Get(&n, "SELECT COUNT(*) FROM clients")
	return n, err
}
