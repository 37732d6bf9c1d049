package fileuploader

import (
	"github.com/brandforge/gen-server/internal/services/filestorage"
	"github.com/brandforge/gen-server/internal/utils/hashutil"
	"github.com/gammazero/workerpool"
)

type Uploader struct {
	wp          *workerpool.WorkerPool
	filestorage filestorage.FileStorage
}

func NewFileUploader(filestorage filestorage.FileStorage, maxWorkers int) *Uploader {
	return &Uploader{
		wp:          workerpool.New(maxWorkers),
		filestorage: filestorage,
	}
}

func (w *Uploader) Stop() {
	w.wp.Stop()
}

func (w *Uploader) Storage() filestorage.FileStorage {
	return w.filestorage
}

func (w *Uploader) Upload(file filestorage.FileInfo, response chan string) {
	w.wp.Submit(func() {
		w.upload(file, response)
	})
}

// UploadBytes persists raw bytes under a sanitized, timestamp-qualified
// name and sends the resulting public URL on response.
func (w *Uploader) UploadBytes(content []byte, name string, extension string, isTemp bool, response chan string) {
	fileInfo := filestorage.NewFileInfo(
		filestorage.TimestampedName(name, hashutil.Blake3Hash(content)),
		extension, content, isTemp)

	w.Upload(fileInfo, response)
}

func (w *Uploader) upload(file filestorage.FileInfo, response chan string) {
	defer close(response)

	if w.filestorage == nil {
		return
	}

	url, err := w.filestorage.Upload(file)
	if err != nil {
		return
	}

	response <- url
}
