package docbuilder

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"

	"github.com/pharmadocs/pi-extraction-service/internal/models"
	"github.com/pharmadocs/pi-extraction-service/internal/temperature"
)

// LabelDoc is one generated label file.
type LabelDoc struct {
	Filename string
	Content  []byte
}

// BuildPriceList renders the price-list document. A template with at
// least one substituted token wins; otherwise the built-in layout is
// used, including when a supplied template matched nothing.
func BuildPriceList(data models.ExtractedData, profile models.CompanyProfile, templateBytes []byte) ([]byte, error) {
	data.EnsurePositions()

	if len(templateBytes) > 0 {
		filled, substituted, err := FillTemplate(templateBytes, BuildContext(data, profile))
		if err != nil {
			return nil, err
		}
		if substituted > 0 {
			return filled, nil
		}
		fmt.Printf("[DocBuilder] price-list template matched no tokens, using built-in layout\n")
	}
	return builtinPriceList(data, profile)
}

// BuildLabels renders one label document per storage-temperature
// group. With a single group the file is named Label.docx; with more,
// each filename carries the canonical temperature slug.
func BuildLabels(data models.ExtractedData, profile models.CompanyProfile, templateBytes []byte) ([]LabelDoc, error) {
	data.EnsurePositions()
	groups := temperature.GroupPositions(data)

	labels := make([]LabelDoc, 0, len(groups))
	for _, group := range groups {
		groupData := data
		groupData.Positions = group.Positions
		groupData.StorageTemperature = group.Key

		var content []byte
		var err error
		if len(templateBytes) > 0 {
			var substituted int
			content, substituted, err = FillTemplate(templateBytes, BuildContext(groupData, profile))
			if err != nil {
				return nil, err
			}
			if substituted == 0 {
				content = nil
			}
		}
		if content == nil {
			content, err = builtinLabel(groupData, profile)
			if err != nil {
				return nil, err
			}
		}

		filename := "Label.docx"
		if len(groups) > 1 {
			filename = fmt.Sprintf("Label_%s.docx", temperature.Slug(group.Key))
		}
		labels = append(labels, LabelDoc{Filename: filename, Content: content})
	}
	return labels, nil
}

// BundleZip packs the price list and all labels into one archive for
// a single download.
func BundleZip(priceList []byte, labels []LabelDoc) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	f, err := zw.Create("Price_List.docx")
	if err != nil {
		return nil, err
	}
	if _, err := f.Write(priceList); err != nil {
		return nil, err
	}

	for _, label := range labels {
		f, err := zw.Create(label.Filename)
		if err != nil {
			return nil, err
		}
		if _, err := f.Write(label.Content); err != nil {
			return nil, err
		}
	}

	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func builtinPriceList(data models.ExtractedData, profile models.CompanyProfile) ([]byte, error) {
	w := &docWriter{}

	w.paragraph("On the company letterhead", false, true)
	w.paragraph("PRICE LIST", true, true)

	w.keyValue("Date", orDefault(data.SpecificationDate, data.InvoiceDate))
	w.keyValue("Invoice No", data.InvoiceNo)
	w.keyValue("Buyer", data.BuyerName)
	w.keyValue("Buyer Address", data.BuyerAddress)
	w.keyValue("Exporter", orDefault(profile.ExporterNameEN, data.ExporterName))
	w.keyValue("Exporter Address", orDefault(profile.ExporterAddressEN, data.ExporterAddress))
	w.paragraph("", false, false)

	headers := []string{"#", "Code", "Product Name (EN)", "Qty", "Packing", "Unit Price", "Total", "Currency"}
	rows := make([][]string, 0, len(data.Positions))
	for idx, pos := range data.Positions {
		rows = append(rows, []string{
			fmt.Sprintf("%d", idx+1),
			orDefault(pos.Code, "-"),
			orDefault(pos.NameEN, "-"),
			orDefault(quantityString(pos.Quantity), "-"),
			orDefault(pos.PackingEN, "-"),
			orDefault(priceString(pos.UnitPrice), "-"),
			orDefault(priceString(pos.TotalPrice), "-"),
			orDefault(orDefault(pos.Currency, data.Currency), "-"),
		})
	}
	w.table(headers, rows)

	w.keyValue("Terms of Delivery", data.TermsOfDelivery)
	w.keyValue("Period of Validity", data.PeriodOfValidity)
	w.keyValue("Date of Specification", data.SpecificationDate)

	if strings.TrimSpace(profile.CompanyInfo) != "" {
		w.paragraph("", false, false)
		w.keyValue("Company Info", strings.TrimSpace(profile.CompanyInfo))
	}
	return w.bytes()
}

func builtinLabel(data models.ExtractedData, profile models.CompanyProfile) ([]byte, error) {
	w := &docWriter{}
	storageRU := orDefault(profile.StorageTempRU, data.StorageTemperature)

	for idx, pos := range data.Positions {
		nameEN := orDefault(pos.NameEN, "[EN name]")
		nameRU := orDefault(pos.NameRU, "[RU name]")
		packRU := orDefault(pos.PackingRU, pos.PackingEN)

		middle := strings.TrimSpace(fmt.Sprintf("%s / %s - %s %s / %s",
			nameEN, nameRU, quantityString(pos.Quantity), pos.PackingEN, packRU))

		storageLine := fmt.Sprintf("Хранение / Storage: %s", data.StorageTemperature)
		if storageRU != data.StorageTemperature {
			storageLine = fmt.Sprintf("%s (%s)", storageLine, storageRU)
		}
		w.centeredTable([]string{
			"Наименование товара / Product name - Quantity / Кол-во",
			middle,
			storageLine,
		}, true)

		if strings.TrimSpace(profile.CompanyInfo) != "" {
			w.paragraph(strings.TrimSpace(profile.CompanyInfo), false, false)
		}
		if idx < len(data.Positions)-1 {
			w.pageBreak()
		}
	}
	return w.bytes()
}
