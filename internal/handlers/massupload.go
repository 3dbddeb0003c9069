package handlers

import "github.com/m1z23r/drift/pkg/drift"

const templateFileName = "mass_upload_template.csv"

type MassUploadHandler struct {
	massUploadService MassUploadServiceInterface
}

func NewMassUploadHandler(massUploadService MassUploadServiceInterface) *MassUploadHandler {
	return &MassUploadHandler{massUploadService: massUploadService}
}

func (h *MassUploadHandler) Template(c *drift.Context) {
	data := h.massUploadService.Template()

	c.Response.Header().Set("Content-Type", "text/csv")
	c.Response.Header().Set("Content-Disposition", attachmentDisposition(templateFileName))
	c.Response.WriteHeader(200)
	_, _ = c.Response.Write(data)
}

func (h *MassUploadHandler) Preview(c *drift.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	name, data, err := readUpload(c)
	if err != nil {
		c.BadRequest(err.Error())
		return
	}

	preview, err := h.massUploadService.Preview(c.Request.Context(), a, name, data)
	if err != nil {
		respondError(c, err, "failed to preview upload")
		return
	}

	_ = c.JSON(200, preview)
}

// Upload answers 200 even when some pod groups failed; the per-pod results
// carry the errors. A sheet naming unknown pods is refused as a whole.
func (h *MassUploadHandler) Upload(c *drift.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	name, data, err := readUpload(c)
	if err != nil {
		c.BadRequest(err.Error())
		return
	}

	result, err := h.massUploadService.Upload(c.Request.Context(), a, name, data)
	if err != nil {
		respondError(c, err, "failed to upload users")
		return
	}

	_ = c.JSON(200, result)
}
