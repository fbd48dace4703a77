package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Metadata decoding
	MetaInfo            Code = 1000
	MetaMissingType     Code = 1001
	MetaMissingAssembly Code = 1002
	MetaUnsupportedType Code = 1003
	MetaBadTypeRef      Code = 1004
	MetaMissingMember   Code = 1005
	MetaForwardingCycle Code = 1006

	// Retargeting
	RetInfo                        Code = 2000
	RetErrorInReferencedAssembly   Code = 2001
	RetIllegalGenericInstantiation Code = 2002
	RetMissingCanonicalType        Code = 2003
	RetAmbiguousCanonicalType      Code = 2004
	RetUnsupportedLocalType        Code = 2005
	RetBaseTypeError               Code = 2006
	RetSignatureTypeError          Code = 2007
	RetDroppedImplementation       Code = 2008
	RetMissingMember               Code = 2009

	// I/O
	IOLoadFileError Code = 4001

	// Project / manifest
	ProjInfo              Code = 5000
	ProjDuplicateAssembly Code = 5001
	ProjMissingAssembly   Code = 5002
	ProjBadManifest       Code = 5003

	// Observability
	ObsInfo    Code = 6000
	ObsTimings Code = 6001
)

var codeDescription = map[Code]string{
	UnknownCode:                    "Unknown error",
	MetaInfo:                       "Metadata information",
	MetaMissingType:                "Type not found in referenced assembly",
	MetaMissingAssembly:            "Referenced assembly could not be resolved",
	MetaUnsupportedType:            "Type is not supported by the language",
	MetaBadTypeRef:                 "Malformed type reference",
	MetaMissingMember:              "Member not found in referenced type",
	MetaForwardingCycle:            "Type forwarding cycle",
	RetInfo:                        "Retargeting information",
	RetErrorInReferencedAssembly:   "Error in referenced assembly",
	RetIllegalGenericInstantiation: "Generic type closed over an embedded interop type",
	RetMissingCanonicalType:        "Canonical type for embedded interop type not found",
	RetAmbiguousCanonicalType:      "Canonical type for embedded interop type is ambiguous",
	RetUnsupportedLocalType:        "Embedded interop type cannot be unified",
	RetBaseTypeError:               "Base type or interface is not available",
	RetSignatureTypeError:          "Signature references a type that is not available",
	RetDroppedImplementation:       "Implemented member not found after retargeting",
	RetMissingMember:               "Member not found after retargeting",
	IOLoadFileError:                "I/O load file error",
	ProjInfo:                       "Project information",
	ProjDuplicateAssembly:          "Duplicate assembly definition",
	ProjMissingAssembly:            "Missing assembly",
	ProjBadManifest:                "Malformed manifest",
	ObsInfo:                        "Observability information",
	ObsTimings:                     "Pipeline timings",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("MD%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("RET%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("PRJ%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[Code(0)]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
