package services

import (
	"bytes"
	"errors"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// buildFileHeaders собирает multipart-заголовки из пар имя-содержимое
func buildFileHeaders(t *testing.T, files map[string]string) []*multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for name, content := range files {
		part, err := writer.CreateFormFile("files", name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatal(err)
	}

	reader := multipart.NewReader(&buf, writer.Boundary())
	form, err := reader.ReadForm(32 << 20)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { form.RemoveAll() })

	return form.File["files"]
}

func newTestAttachmentService(t *testing.T) *AttachmentService {
	t.Helper()
	return NewAttachmentService(t.TempDir(), 1024, []string{"pdf", "png", "jpg", "jpeg"})
}

func TestAttachmentServiceSaveAndResolve(t *testing.T) {
	service := newTestAttachmentService(t)

	headers := buildFileHeaders(t, map[string]string{"чек.pdf": "содержимое"})
	saved, err := service.SaveFiles(7, 42, "debt", headers)
	if err != nil {
		t.Fatal(err)
	}
	if len(saved) != 1 {
		t.Fatalf("сохранено файлов: got %v want 1", len(saved))
	}
	if !strings.HasPrefix(saved[0], "debt_") {
		t.Errorf("имя файла должно начинаться с debt_: %v", saved[0])
	}

	path, err := service.ResolveFile(7, 42, saved[0])
	if err != nil {
		t.Fatal(err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "содержимое" {
		t.Errorf("содержимое файла: got %v", string(content))
	}
}

func TestAttachmentServiceRejectsBadExtension(t *testing.T) {
	service := newTestAttachmentService(t)

	headers := buildFileHeaders(t, map[string]string{"malware.exe": "xx"})
	if _, err := service.SaveFiles(1, 1, "debt", headers); !errors.Is(err, ErrFileNotAllowed) {
		t.Errorf("ожидалась ошибка ErrFileNotAllowed, получено: %v", err)
	}
}

func TestAttachmentServiceRejectsOversized(t *testing.T) {
	service := newTestAttachmentService(t)

	big := strings.Repeat("a", 2048)
	headers := buildFileHeaders(t, map[string]string{"big.pdf": big})
	if _, err := service.SaveFiles(1, 1, "debt", headers); !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("ожидалась ошибка ErrFileTooLarge, получено: %v", err)
	}
}

func TestAttachmentServiceResolveRejectsTraversal(t *testing.T) {
	service := newTestAttachmentService(t)

	for _, name := range []string{"../secret.pdf", "a/b.pdf", "", "."} {
		if _, err := service.ResolveFile(1, 1, name); !errors.Is(err, ErrFileNotFound) {
			t.Errorf("имя %q: ожидалась ошибка ErrFileNotFound, получено: %v", name, err)
		}
	}
}

func TestAttachmentServiceRemoveDebtDir(t *testing.T) {
	service := newTestAttachmentService(t)

	headers := buildFileHeaders(t, map[string]string{"doc.pdf": "xx"})
	saved, err := service.SaveFiles(3, 9, "payment", headers)
	if err != nil {
		t.Fatal(err)
	}

	if err := service.RemoveDebtDir(3, 9); err != nil {
		t.Fatal(err)
	}

	if _, err := service.ResolveFile(3, 9, saved[0]); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("файл должен быть удален, получено: %v", err)
	}

	// Каталог должника больше не содержит папку долга
	if _, err := os.Stat(filepath.Join(service.uploadDir, "3", "9")); !os.IsNotExist(err) {
		t.Error("каталог долга должен быть удален")
	}
}
