package pipeline

import (
	"strings"

	exif "github.com/dsoprea/go-exif/v3"
)

// auditEXIF inspects a downloaded image for metadata the site operator
// probably did not mean to publish. A page serving geotagged originals
// is worth flagging in a link audit, so GPS tags log at warn level.
func (s *ImageSaveStep) auditEXIF(imageURL string, data []byte) {
	rawExif, err := exif.SearchAndExtractExif(data)
	if err != nil || rawExif == nil {
		return
	}
	entries, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		return
	}

	var device []string
	var gpsTags []string
	for _, entry := range entries {
		switch entry.TagName {
		case "Make", "Model":
			device = append(device, entry.Formatted)
		case "GPSLatitude", "GPSLongitude", "GPSLatitudeRef", "GPSLongitudeRef":
			gpsTags = append(gpsTags, entry.TagName)
		}
	}

	if len(device) > 0 {
		s.logger.Info("image carries camera metadata",
			"url", imageURL,
			"device", strings.Join(device, " "),
		)
	}
	if len(gpsTags) > 0 {
		s.logger.Warn("image carries GPS metadata",
			"url", imageURL,
			"tags", strings.Join(gpsTags, ","),
		)
	}
}
