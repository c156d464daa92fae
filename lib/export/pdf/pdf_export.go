package pdfexport

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"

	dbmodels "approval-flow-backend/models/db"
)

// GenerateApprovalSheet renders the printable approval sheet of one
// request: header, stage table and the recorded decisions.
func GenerateApprovalSheet(rec dbmodels.Request, actions []dbmodels.ApprovalAction) (pdfFile []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("GenerateApprovalSheet panic recover: %v", r)
		}
	}()
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	if pdf.Error() != nil {
		return nil, pdf.Error()
	}

	pdf.CellFormat(0, 10, fmt.Sprintf("Approval sheet %s", rec.SeqNumber), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 11)
	writeField(pdf, "Type", rec.Type.ToHuman())
	writeField(pdf, "Title", rec.Title)
	writeField(pdf, "Requester", rec.Requester)
	writeField(pdf, "Department", rec.Department)
	if rec.Estimate != nil {
		writeField(pdf, "Estimate", fmt.Sprintf("%.2f %s", *rec.Estimate, rec.Currency))
	}
	writeField(pdf, "Status", rec.Status.ToHuman())
	writeField(pdf, "Created", rec.CreatedAt.Format("02.01.2006"))
	if rec.CompletedAt != nil {
		writeField(pdf, "Completed", rec.CompletedAt.Format("02.01.2006"))
	}
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Stages", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(10, 7, "#", "1", 0, "C", false, 0, "")
	pdf.CellFormat(80, 7, "Stage", "1", 0, "L", false, 0, "")
	pdf.CellFormat(50, 7, "Role", "1", 0, "L", false, 0, "")
	pdf.CellFormat(40, 7, "Status", "1", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, stage := range rec.OrderedStages() {
		role := string(stage.RequiredRole)
		if role == "" && len(stage.OneOfRoles) > 0 {
			role = joinRoles(stage.OneOfRoles)
		}
		pdf.CellFormat(10, 7, fmt.Sprintf("%d", stage.OrderIdx+1), "1", 0, "C", false, 0, "")
		pdf.CellFormat(80, 7, stage.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(50, 7, role, "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 7, stage.Status.ToHuman(), "1", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	if len(actions) > 0 {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 8, "Decisions", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		for _, action := range actions {
			line := fmt.Sprintf("%s  %s by %s (%s)",
				action.CreatedAt.Format("02.01.2006 15:04"),
				action.Action, action.ActorID, action.ActorRole.ToHuman())
			pdf.CellFormat(0, 6, line, "", 1, "L", false, 0, "")
			if action.Comment != "" {
				pdf.SetFont("Helvetica", "I", 10)
				pdf.MultiCell(0, 6, action.Comment, "", "L", false)
				pdf.SetFont("Helvetica", "", 10)
			}
		}
	}

	buf := new(bytes.Buffer)
	err = pdf.Output(buf)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeField(pdf *fpdf.Fpdf, name, value string) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(40, 7, name, "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 7, value, "", 1, "L", false, 0, "")
}

func joinRoles(roles []string) string {
	out := ""
	for idx, role := range roles {
		if idx > 0 {
			out += " / "
		}
		out += role
	}
	return out
}
