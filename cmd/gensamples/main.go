// Command gensamples writes a set of sample input files for manual testing:
// an identity master CSV, an inventory CSV with its vendor preamble, and a
// purchase history workbook.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"
)

const utf8BOM = "\ufeff"

var legalEntities = []string{"医療法人青空会", "医療法人ひまわり会"}

var facilities = []string{"青空薬局本店", "青空薬局駅前店", "ひまわり調剤薬局", "ひまわり薬局北店"}

func main() {
	outDir := flag.String("out", ".", "output directory")
	count := flag.Int("count", 15, "number of inventory rows")
	flag.Parse()

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		fmt.Fprintln(os.Stderr, "creating output directory:", err)
		os.Exit(1)
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	if err := writeIdentityMaster(filepath.Join(*outDir, "sample_identity_master.csv"), *count); err != nil {
		fmt.Fprintln(os.Stderr, "identity master:", err)
		os.Exit(1)
	}
	if err := writeInventory(filepath.Join(*outDir, "sample_inventory.csv"), *count, rng); err != nil {
		fmt.Fprintln(os.Stderr, "inventory:", err)
		os.Exit(1)
	}
	if err := writePurchaseHistory(filepath.Join(*outDir, "sample_purchase_history.xlsx"), *count, rng); err != nil {
		fmt.Fprintln(os.Stderr, "purchase history:", err)
		os.Exit(1)
	}

	fmt.Println("Sample files written to", *outDir)
}

func productName(i int) string {
	return fmt.Sprintf("医薬品%d 10mg錠", i+1)
}

func yjCode(i int) string {
	return fmt.Sprintf("YJ%08d", i+1)
}

func writeIdentityMaster(path string, count int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteString(utf8BOM); err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if err := w.Write([]string{"商品名", "YJコード", "単位"}); err != nil {
		return err
	}
	units := []string{"錠", "カプセル", "包", "本"}
	for i := 0; i < count; i++ {
		if err := w.Write([]string{productName(i), yjCode(i), units[i%len(units)]}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeInventory(path string, count int, rng *rand.Rand) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteString(utf8BOM); err != nil {
		return err
	}

	// Vendor exports start with a preamble block that the importer skips.
	preamble := []string{
		"在庫一覧表",
		fmt.Sprintf("出力日,%s", time.Now().Format("2006/01/02")),
		"店舗,本店",
		"",
		"抽出条件,全品目",
		"",
		"",
	}
	for _, line := range preamble {
		if _, err := fmt.Fprintln(f, line); err != nil {
			return err
		}
	}

	w := csv.NewWriter(f)
	if err := w.Write([]string{"商品名", "在庫数量", "有効期限", "ロット"}); err != nil {
		return err
	}
	for i := 0; i < count; i++ {
		expiry := time.Now().AddDate(0, 0, (i-3)*60).Format("2006-01-02")
		if i%7 == 6 {
			expiry = ""
		}
		row := []string{
			productName(i),
			fmt.Sprintf("%d", rng.Intn(50)+1),
			expiry,
			fmt.Sprintf("LOT%04d", rng.Intn(10000)),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writePurchaseHistory(path string, count int, rng *rand.Rand) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	header := []any{"YJコード", "法人名", "院所名", "品名・規格", "薬品コード"}
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}

	for i := 0; i < count; i++ {
		entity := legalEntities[i%len(legalEntities)]
		facility := facilities[i%len(facilities)]
		row := []any{
			yjCode(i),
			entity,
			facility,
			productName(i),
			fmt.Sprintf("P%05d", rng.Intn(90000)+10000),
		}
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}

	return f.SaveAs(path)
}

func setRow(f *excelize.File, sheet string, row int, cells []any) error {
	for col, value := range cells {
		name, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, name, value); err != nil {
			return err
		}
	}
	return nil
}
