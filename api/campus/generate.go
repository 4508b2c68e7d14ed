package campus

//go:generate swag init --dir ../../ --generalInfo internal/campus/http/router.go --output . --outputTypes go --packageName campus --parseDependency
