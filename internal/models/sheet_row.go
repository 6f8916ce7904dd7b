package models

import "time"

// SheetRow mirrors one spreadsheet row in SQL. Rows are inserted and never
// updated or deleted, so the model carries no UpdatedAt/DeletedAt.
type SheetRow struct {
	ID        uint   `gorm:"primaryKey"`
	Timestamp string `gorm:"not null"`
	Kind      string `gorm:"not null;index"`
	C3        string `gorm:"column:c3;not null;default:''"`
	C4        string `gorm:"column:c4;not null;default:''"`
	C5        string `gorm:"column:c5;not null;default:''"`
	C6        string `gorm:"column:c6;not null;default:''"`
	CreatedAt time.Time
}

func (SheetRow) TableName() string {
	return "sheet_rows"
}

func SheetRowFromRow(row Row) *SheetRow {
	return &SheetRow{
		Timestamp: row[0],
		Kind:      row[1],
		C3:        row[2],
		C4:        row[3],
		C5:        row[4],
		C6:        row[5],
	}
}

func (r *SheetRow) Row() Row {
	return Row{r.Timestamp, r.Kind, r.C3, r.C4, r.C5, r.C6}
}
