package commands

import (
	"github.com/ermos/backupmanager/internal/wizard"
)

// Option and parameter names shared by the commands.
const (
	paramDatabase        = "database"
	paramDestination     = "destination"
	paramDestinationPath = "destinationPath"
	paramCompression     = "compression"
	paramSource          = "source"
	paramSourcePath      = "sourcePath"
	paramPath            = "path"
)

func databaseSpec(svc *Services) wizard.ParameterSpec {
	return wizard.ParameterSpec{
		Name:         paramDatabase,
		Question:     "From which database connection you want to dump?",
		ChoicesLabel: "Available database connections",
		Choices:      svc.Databases.AvailableProviders,
	}
}

func storageSpec(svc *Services, name, label, question string) wizard.ParameterSpec {
	return wizard.ParameterSpec{
		Name:         name,
		Question:     question,
		ChoicesLabel: label,
		Choices:      svc.Storages.AvailableProviders,
	}
}

// pathSpec asks for a path relative to the root of the storage chosen in storageParam.
func pathSpec(svc *Services, name, storageParam, question string) wizard.ParameterSpec {
	return wizard.ParameterSpec{
		Name:     name,
		Question: question,
		Root:     svc.storageRoot(storageParam),
	}
}

func compressionSpec(svc *Services) wizard.ParameterSpec {
	return wizard.ParameterSpec{
		Name:         paramCompression,
		Question:     "Which compression type you want to use?",
		ChoicesLabel: "Available compression types",
		Choices:      svc.Compressors.AvailableProviders,
	}
}

// rootedPath is how a path on a storage is shown to the user.
func rootedPath(svc *Services, storage, p string) string {
	return svc.Storages.ConfigValue(storage, "root") + p
}
