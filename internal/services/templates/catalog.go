package templates

import "github.com/phambaophuc/meta-shift/internal/models"

func str(s string) *string { return &s }
func num(n int) *int       { return &n }

// Catalog returns the built-in templates in display order. Each call
// returns fresh values so callers cannot alias the registry's copy.
func Catalog() []models.MetadataTemplate {
	return []models.MetadataTemplate{
		// Mobile devices
		{
			ID:          "iphone-15-pro",
			Name:        "iPhone 15 Pro",
			Description: "Camera metadata from an iPhone 15 Pro",
			Category:    models.CategoryMobile,
			Image: models.ImageFields{
				Make:         str("Apple"),
				Model:        str("iPhone 15 Pro"),
				Software:     str("17.4.1"),
				ColorSpace:   num(65535),
				WhiteBalance: num(0),
			},
			Video: &models.VideoFields{
				Encoder:           "Apple H.265",
				HandlerName:       "Core Media Video",
				QuickTimeMake:     "Apple",
				QuickTimeModel:    "iPhone 15 Pro",
				QuickTimeSoftware: "17.4.1",
			},
		},
		{
			ID:          "iphone-14",
			Name:        "iPhone 14",
			Description: "Camera metadata from an iPhone 14",
			Category:    models.CategoryMobile,
			Image: models.ImageFields{
				Make:         str("Apple"),
				Model:        str("iPhone 14"),
				Software:     str("17.3.1"),
				ColorSpace:   num(65535),
				WhiteBalance: num(0),
			},
			Video: &models.VideoFields{
				Encoder:           "Apple H.265",
				HandlerName:       "Core Media Video",
				QuickTimeMake:     "Apple",
				QuickTimeModel:    "iPhone 14",
				QuickTimeSoftware: "17.3.1",
			},
		},
		{
			ID:          "samsung-s24",
			Name:        "Samsung S24 Ultra",
			Description: "Camera metadata from a Galaxy S24 Ultra",
			Category:    models.CategoryMobile,
			Image: models.ImageFields{
				Make:         str("samsung"),
				Model:        str("SM-S928B"),
				Software:     str("S928BXXU1AXBA"),
				ColorSpace:   num(1),
				WhiteBalance: num(0),
			},
			Video: &models.VideoFields{
				Encoder:     "samsung",
				HandlerName: "VideoHandler",
			},
		},
		{
			ID:          "pixel-8",
			Name:        "Google Pixel 8 Pro",
			Description: "Camera metadata from a Pixel 8 Pro",
			Category:    models.CategoryMobile,
			Image: models.ImageFields{
				Make:         str("Google"),
				Model:        str("Pixel 8 Pro"),
				Software:     str("HDR+ 1.0.540104767zd"),
				ColorSpace:   num(1),
				WhiteBalance: num(0),
			},
			Video: &models.VideoFields{
				Encoder:     "Google",
				HandlerName: "VideoHandle",
			},
		},

		// Cameras
		{
			ID:          "canon-r5",
			Name:        "Canon EOS R5",
			Description: "Professional Canon camera metadata",
			Category:    models.CategoryCamera,
			Image: models.ImageFields{
				Make:         str("Canon"),
				Model:        str("Canon EOS R5"),
				Software:     str("Firmware Version 1.8.1"),
				Artist:       str(""),
				Copyright:    str(""),
				ColorSpace:   num(1),
				WhiteBalance: num(0),
			},
			Video: &models.VideoFields{
				Encoder:     "Canon",
				HandlerName: "Canon Video Media Handler",
			},
		},
		{
			ID:          "sony-a7iv",
			Name:        "Sony A7 IV",
			Description: "Professional Sony camera metadata",
			Category:    models.CategoryCamera,
			Image: models.ImageFields{
				Make:         str("SONY"),
				Model:        str("ILCE-7M4"),
				Software:     str("ILCE-7M4 v2.01"),
				ColorSpace:   num(1),
				WhiteBalance: num(0),
			},
			Video: &models.VideoFields{
				Encoder:     "Sony",
				HandlerName: "Sony Video Media Handler",
			},
		},

		// Software
		{
			ID:          "premiere-pro",
			Name:        "Adobe Premiere Pro",
			Description: "Exported from Premiere Pro",
			Category:    models.CategorySoftware,
			Image:       models.ImageFields{Software: str("Adobe Premiere Pro 2024")},
			Video: &models.VideoFields{
				Encoder:     "Adobe Premiere Pro 2024 (Windows)",
				HandlerName: "Adobe Media Encoder",
			},
		},
		{
			ID:          "davinci",
			Name:        "DaVinci Resolve",
			Description: "Exported from DaVinci Resolve",
			Category:    models.CategorySoftware,
			Image:       models.ImageFields{Software: str("DaVinci Resolve 18.6.4")},
			Video: &models.VideoFields{
				Encoder:     "DaVinci Resolve",
				HandlerName: "DaVinci Resolve",
			},
		},
		{
			ID:          "final-cut",
			Name:        "Final Cut Pro",
			Description: "Exported from Final Cut Pro",
			Category:    models.CategorySoftware,
			Image:       models.ImageFields{Software: str("Final Cut Pro 10.7.1")},
			Video: &models.VideoFields{
				Encoder:           "Apple Final Cut Pro",
				HandlerName:       "Apple Video Media Handler",
				QuickTimeSoftware: "Final Cut Pro 10.7.1",
			},
		},
		{
			ID:          "capcut",
			Name:        "CapCut",
			Description: "Exported from CapCut",
			Category:    models.CategorySoftware,
			Image:       models.ImageFields{Software: str("CapCut")},
			Video: &models.VideoFields{
				Encoder:     "CapCut Video Editor",
				HandlerName: "VideoHandler",
			},
		},
		{
			ID:          "canva",
			Name:        "Canva",
			Description: "Exported from Canva",
			Category:    models.CategorySoftware,
			Image:       models.ImageFields{Software: str("Canva")},
			Video: &models.VideoFields{
				Encoder:     "Canva",
				HandlerName: "VideoHandler",
			},
		},
		{
			ID:          "photoshop",
			Name:        "Adobe Photoshop",
			Description: "Edited in Photoshop",
			Category:    models.CategorySoftware,
			Image: models.ImageFields{
				Software:   str("Adobe Photoshop 25.5 (Windows)"),
				ColorSpace: num(1),
			},
		},
		{
			ID:          "lightroom",
			Name:        "Adobe Lightroom",
			Description: "Edited in Lightroom",
			Category:    models.CategorySoftware,
			Image: models.ImageFields{
				Software:   str("Adobe Lightroom Classic 13.1 (Windows)"),
				ColorSpace: num(1),
			},
		},
	}
}
