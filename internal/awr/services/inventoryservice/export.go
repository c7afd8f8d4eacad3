package inventoryservice

import (
	"bytes"
	"context"
	"strconv"
	"strings"

	"github.com/Leopold1975/awr_control/internal/awr/domain/models"
	"github.com/Leopold1975/awr_control/internal/awr/services/policy"
)

const ExportFilename = "awr_inventory.csv"

var exportHeader = []string{"Материал/Инструмент", "Тип", "Единица/серия", "Остаток"} //nolint:gochecknoglobals

// ExportCSV выгружает материалы и инструмент одной таблицей.
// Каждая ячейка в кавычках, кавычки внутри удваиваются, строки разделены "\n".
func (is *InventoryService) ExportCSV(ctx context.Context, actor models.Actor) ([]byte, error) {
	if err := policy.Check(actor, policy.ExportInventory); err != nil {
		return nil, err
	}

	inv, err := is.ListInventory(ctx)
	if err != nil {
		return nil, err
	}

	return EncodeCSV(inv), nil
}

func EncodeCSV(inv models.Inventory) []byte {
	rows := make([][]string, 0, 1+len(inv.Materials)+len(inv.Tools))
	rows = append(rows, exportHeader)

	for _, m := range inv.Materials {
		rows = append(rows, []string{m.Name, "Материал", string(m.Unit), strconv.FormatFloat(m.Total, 'f', -1, 64)})
	}

	for _, t := range inv.Tools {
		where := "На складе"
		if t.AssignedTo != nil {
			where = "Бриг " + strconv.Itoa(*t.AssignedTo)
		}

		rows = append(rows, []string{t.Name, "Инструмент", t.Serial, where})
	}

	var buf bytes.Buffer

	for i, r := range rows {
		if i > 0 {
			buf.WriteByte('\n')
		}

		for j, c := range r {
			if j > 0 {
				buf.WriteByte(',')
			}

			buf.WriteByte('"')
			buf.WriteString(strings.ReplaceAll(c, `"`, `""`))
			buf.WriteByte('"')
		}
	}

	return buf.Bytes()
}
