package view

import (
	"fmt"
	"strconv"

	"github.com/muurk/wifipanel/internal/wifiapi"
)

// EncryptedMark is shown for networks using any encryption. The variation
// selector asks for the text rendition of the lock.
const EncryptedMark = "🔒\ufe0e"

// SavedRows maps saved networks to rows keyed by id. Passwords are shown only
// as presence.
func SavedRows(saved []wifiapi.SavedNetwork) []Row {
	rows := make([]Row, 0, len(saved))
	for _, n := range saved {
		password := "no"
		if n.HasPassword() {
			password = "yes"
		}
		rows = append(rows, Row{
			Key: strconv.Itoa(n.ID),
			Cells: []Cell{
				{Name: "name", Value: n.APName},
				{Name: "password", Value: password},
				{Name: "id", Value: n.ID},
			},
		})
	}
	return rows
}

// ScannedRows maps scan results to rows keyed by SSID.
func ScannedRows(scanned []wifiapi.ScannedNetwork) []Row {
	rows := make([]Row, 0, len(scanned))
	for _, n := range scanned {
		encrypted := ""
		if n.Encrypted() {
			encrypted = EncryptedMark
		}
		rows = append(rows, Row{
			Key: n.SSID,
			Cells: []Cell{
				{Name: StrengthColumn, Value: Strength(n.RSSI)},
				{Name: "ssid", Value: n.SSID},
				{Name: "encryption", Value: n.EncryptionType.String()},
				{Name: "encrypted", Value: encrypted},
				{Name: "channel", Value: n.Channel},
				{Name: "rssi", Value: fmt.Sprintf("%d dbm", n.RSSI)},
			},
		})
	}
	return rows
}
