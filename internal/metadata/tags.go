package metadata

// IFD names the directory a tag lives in.
type IFD string

const (
	IFD0    IFD = "IFD0"
	ExifIFD IFD = "Exif"
	GPSIFD  IFD = "GPS"
)

// Tag is one row of the key table shared by the parser and every consumer
// of Exif records. Keys match the field names used by goexif.
type Tag struct {
	ID   uint16
	Key  string
	IFD  IFD
	Type ValueKind
}

const (
	KeyMake                  = "Make"
	KeyModel                 = "Model"
	KeyOrientation           = "Orientation"
	KeySoftware              = "Software"
	KeyDateTime              = "DateTime"
	KeyXResolution           = "XResolution"
	KeyYResolution           = "YResolution"
	KeyExposureTime          = "ExposureTime"
	KeyFNumber               = "FNumber"
	KeyExposureProgram       = "ExposureProgram"
	KeyISOSpeedRatings       = "ISOSpeedRatings"
	KeyDateTimeOriginal      = "DateTimeOriginal"
	KeyDateTimeDigitized     = "DateTimeDigitized"
	KeyShutterSpeedValue     = "ShutterSpeedValue"
	KeyApertureValue         = "ApertureValue"
	KeyExposureBiasValue     = "ExposureBiasValue"
	KeyMeteringMode          = "MeteringMode"
	KeyFlash                 = "Flash"
	KeyFocalLength           = "FocalLength"
	KeyPixelXDimension       = "PixelXDimension"
	KeyPixelYDimension       = "PixelYDimension"
	KeyWhiteBalance          = "WhiteBalance"
	KeyFocalLengthIn35mmFilm = "FocalLengthIn35mmFilm"
	KeyLensModel             = "LensModel"
	KeyGPSLatitudeRef        = "GPSLatitudeRef"
	KeyGPSLatitude           = "GPSLatitude"
	KeyGPSLongitudeRef       = "GPSLongitudeRef"
	KeyGPSLongitude          = "GPSLongitude"
	KeyGPSAltitudeRef        = "GPSAltitudeRef"
	KeyGPSAltitude           = "GPSAltitude"
	KeyGPSTimeStamp          = "GPSTimeStamp"
	KeyGPSDateStamp          = "GPSDateStamp"
)

// Tags is the fixed tag table. Its order is the display order of Exif fields.
var Tags = []Tag{
	{0x010F, KeyMake, IFD0, String},
	{0x0110, KeyModel, IFD0, String},
	{0x0112, KeyOrientation, IFD0, Number},
	{0x0131, KeySoftware, IFD0, String},
	{0x0132, KeyDateTime, IFD0, String},
	{0x011A, KeyXResolution, IFD0, Number},
	{0x011B, KeyYResolution, IFD0, Number},

	{0x829A, KeyExposureTime, ExifIFD, Number},
	{0x829D, KeyFNumber, ExifIFD, Number},
	{0x8822, KeyExposureProgram, ExifIFD, Number},
	{0x8827, KeyISOSpeedRatings, ExifIFD, Number},
	{0x9003, KeyDateTimeOriginal, ExifIFD, String},
	{0x9004, KeyDateTimeDigitized, ExifIFD, String},
	{0x9201, KeyShutterSpeedValue, ExifIFD, Number},
	{0x9202, KeyApertureValue, ExifIFD, Number},
	{0x9204, KeyExposureBiasValue, ExifIFD, Number},
	{0x9207, KeyMeteringMode, ExifIFD, Number},
	{0x9209, KeyFlash, ExifIFD, Number},
	{0x920A, KeyFocalLength, ExifIFD, Number},
	{0xA002, KeyPixelXDimension, ExifIFD, Number},
	{0xA003, KeyPixelYDimension, ExifIFD, Number},
	{0xA403, KeyWhiteBalance, ExifIFD, Number},
	{0xA405, KeyFocalLengthIn35mmFilm, ExifIFD, Number},
	{0xA434, KeyLensModel, ExifIFD, String},

	{0x0001, KeyGPSLatitudeRef, GPSIFD, String},
	{0x0002, KeyGPSLatitude, GPSIFD, Sequence},
	{0x0003, KeyGPSLongitudeRef, GPSIFD, String},
	{0x0004, KeyGPSLongitude, GPSIFD, Sequence},
	{0x0005, KeyGPSAltitudeRef, GPSIFD, Number},
	{0x0006, KeyGPSAltitude, GPSIFD, Number},
	{0x0007, KeyGPSTimeStamp, GPSIFD, Sequence},
	{0x001D, KeyGPSDateStamp, GPSIFD, String},
}

var tagIndex = func() map[string]int {
	idx := make(map[string]int, len(Tags))
	for i, t := range Tags {
		idx[t.Key] = i
	}
	return idx
}()

// LookupTag returns the table row for key.
func LookupTag(key string) (Tag, bool) {
	i, ok := tagIndex[key]
	if !ok {
		return Tag{}, false
	}
	return Tags[i], true
}
