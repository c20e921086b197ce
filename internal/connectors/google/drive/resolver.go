package drive

import "google.golang.org/api/drive/v3"

// WebURL returns the browser link of a Drive file, building one from the
// file ID when the API did not return webViewLink.
func WebURL(file *drive.File) string {
	if file.WebViewLink != "" {
		return file.WebViewLink
	}
	return "https://drive.google.com/file/d/" + file.Id + "/view"
}
