package service

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"sessly/pkg/model"

	"github.com/google/uuid"
	"github.com/phpdave11/gofpdf"
	qrcode "github.com/skip2/go-qrcode"
)

// ReceiptRenderer produces a PDF receipt with a signed QR payload so a
// printed receipt can be verified offline against the HMAC secret.
type ReceiptRenderer struct {
	secret []byte
}

func NewReceiptRenderer(secret string) *ReceiptRenderer {
	return &ReceiptRenderer{secret: []byte(secret)}
}

// qrPayload is booking|receipt|total|timestamp|signature.
func (rr *ReceiptRenderer) qrPayload(bookingID, receiptNumber string, total float64) string {
	data := fmt.Sprintf("%s|%s|%.2f|%d", bookingID, receiptNumber, total, time.Now().Unix())

	h := hmac.New(sha256.New, rr.secret)
	h.Write([]byte(data))
	sig := base64.StdEncoding.EncodeToString(h.Sum(nil))

	return fmt.Sprintf("%s|%s", data, sig)
}

// Render builds the receipt PDF and returns it with the generated receipt
// number.
func (rr *ReceiptRenderer) Render(booking *model.Booking) ([]byte, string, error) {
	receiptNumber := uuid.NewString()

	qrPNG, err := qrcode.Encode(rr.qrPayload(booking.ID, receiptNumber, booking.TotalAmount), qrcode.Medium, 256)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate QR code: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Booking Receipt")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 12)
	pdf.Cell(0, 10, fmt.Sprintf("Receipt No: %s", receiptNumber))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Booking ID: %s", booking.ID))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Name: %s", booking.Name))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Sessions: %d", booking.Sessions))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Premium Plan: %s", strings.ToUpper(booking.PremiumPlan)))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Payment Method: %s", booking.PaymentMethod))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Status: %s", booking.Status))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Total: %.2f", booking.TotalAmount))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Issued: %s", time.Now().UTC().Format(time.RFC3339)))
	pdf.Ln(12)

	imageOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", imageOpts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 150, 40, 40, 40, false, imageOpts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", fmt.Errorf("failed to render receipt PDF: %w", err)
	}

	return buf.Bytes(), receiptNumber, nil
}
