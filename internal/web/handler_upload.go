package web

import (
	"io"
	"net/http"

	"github.com/vbonduro/aushadhi/internal/domain"
	"github.com/vbonduro/aushadhi/internal/imagedata"
)

const maxPhotoSize = 20 * 1024 * 1024 // 20 MB

// readImageUpload parses the multipart "image" field and checks that it is an
// accepted image format. On failure it writes the error response and returns
// ok=false.
func (s *Server) readImageUpload(w http.ResponseWriter, r *http.Request) (data []byte, fileName string, ok bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoSize+1024*1024)
	if err := r.ParseMultipartForm(maxPhotoSize); err != nil {
		writeError(w, http.StatusBadRequest, "failed to parse form", s.logger)
		return nil, "", false
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "image file required", s.logger)
		return nil, "", false
	}
	defer closeWithLog(file, "upload file", s.logger)

	data, err = io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read file", s.logger)
		s.logger.Error("read upload failed", "error", err)
		return nil, "", false
	}

	if _, ok := imagedata.Sniff(data); !ok {
		writeError(w, http.StatusBadRequest, imagedata.ErrNotImage.Error(), s.logger)
		return nil, "", false
	}
	return data, header.Filename, true
}

// language reads the "lang" parameter, falling back to the server default.
// On an unsupported code it writes a 400 and returns ok=false.
func (s *Server) language(w http.ResponseWriter, r *http.Request) (domain.Language, bool) {
	code := r.FormValue("lang")
	if code == "" {
		return s.defaultLang, true
	}
	lang, err := domain.ParseLanguage(code)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), s.logger)
		return "", false
	}
	return lang, true
}
